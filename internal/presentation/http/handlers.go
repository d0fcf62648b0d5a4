package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"guka/app/internal/domain/passage"
	"guka/app/internal/presentation/http/templates"
)

const (
	htmlContentType      = "text/html; charset=utf-8"
	previewRunes         = 150
	errorFallbackMessage = "요청을 처리하지 못했습니다. 잠시 후 다시 시도해 주세요."
)

type htmlResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type passageInput struct {
	ID string `path:"id"`
}

type searchInput struct {
	Query string `query:"q"`
}

// passageJSON is the API representation of a passage. Content is null until ingested.
type passageJSON struct {
	ID            int64   `json:"id"`
	Year          int     `json:"year"`
	ExamType      string  `json:"examType"`
	ExamTypeLabel string  `json:"examTypeLabel"`
	Number        int     `json:"number"`
	Category      string  `json:"category"`
	CategoryLabel string  `json:"categoryLabel"`
	Subject       string  `json:"subject"`
	Content       *string `json:"content"`
}

type apiSearchResponse struct {
	Body struct {
		Query   string        `json:"query"`
		Count   int           `json:"count"`
		Results []passageJSON `json:"results"`
	}
}

type apiPassageResponse struct {
	Body passageJSON
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
}

func (s *Server) registerHomeRoute() {
	huma.Get(s.api, "/", s.homeHandler, htmlOperation("Guka home", stdhttp.StatusServiceUnavailable))
}

func (s *Server) registerSearchRoute() {
	huma.Get(s.api, "/search", s.searchHandler, htmlOperation(
		"Search passages",
		stdhttp.StatusInternalServerError,
		stdhttp.StatusServiceUnavailable,
		stdhttp.StatusGatewayTimeout,
	))
}

func (s *Server) registerPassageRoute() {
	huma.Get(s.api, "/passages/{id}", s.passageHandler, htmlOperation(
		"Read passage",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
		stdhttp.StatusServiceUnavailable,
		stdhttp.StatusGatewayTimeout,
	))
}

func (s *Server) registerAPISearchRoute() {
	huma.Get(s.api, "/api/search", s.apiSearchHandler, func(op *huma.Operation) {
		op.Summary = "Search passages (JSON)"
	})
}

func (s *Server) registerAPIPassageRoute() {
	huma.Get(s.api, "/api/passages/{id}", s.apiPassageHandler, func(op *huma.Operation) {
		op.Summary = "Read passage (JSON)"
	})
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) homeHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	count, err := s.passages.Count(ctx)
	if err != nil {
		status, message := classifyError(err)
		s.recordError(ctx, err, "counting passages", nil)
		return s.renderErrorResponse(ctx, status, message)
	}

	body, err := renderComponent(ctx, templates.HomePage(templates.HomePageData{PassageCount: count}))
	if err != nil {
		s.recordError(ctx, err, "rendering home page", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "홈 화면을 표시하지 못했습니다.")
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) searchHandler(ctx context.Context, input *searchInput) (*htmlResponse, error) {
	query := strings.TrimSpace(input.Query)
	data := templates.SearchPageData{Query: query}

	results, err := s.passages.Search(ctx, query)
	if err != nil {
		status, message := classifyError(err)
		s.recordError(ctx, err, "search request failed", logrus.Fields{"query": query})
		return s.renderErrorResponse(ctx, status, message)
	}

	data.Results = make([]templates.PassageCardView, 0, len(results))
	for _, p := range results {
		data.Results = append(data.Results, templates.PassageCardView{
			URL:           passageURL(p.ID),
			Year:          p.Year,
			ExamLabel:     p.ExamType.Label(),
			CategoryLabel: p.Category.Label(),
			Subject:       p.Subject,
			Preview:       p.Preview(previewRunes),
		})
	}

	body, err := renderComponent(ctx, templates.SearchPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering search page", logrus.Fields{"query": query})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "검색 결과를 표시하지 못했습니다.")
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) passageHandler(ctx context.Context, input *passageInput) (*htmlResponse, error) {
	p, err := s.passages.Lookup(ctx, input.ID)
	if err != nil {
		status, message := classifyError(err)
		if status != stdhttp.StatusNotFound {
			s.recordError(ctx, err, "loading passage", logrus.Fields{"passage_id": input.ID})
		}
		return s.renderErrorResponse(ctx, status, message)
	}

	body, err := renderComponent(ctx, templates.PassagePage(templates.PassagePageData{
		Year:          p.Year,
		ExamLabel:     p.ExamType.Label(),
		CategoryLabel: p.Category.Label(),
		Number:        p.Number,
		Subject:       p.Subject,
		Content:       p.Body(),
		HasContent:    p.HasContent(),
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering passage page", logrus.Fields{"passage_id": p.ID})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "지문을 표시하지 못했습니다.")
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) apiSearchHandler(ctx context.Context, input *searchInput) (*apiSearchResponse, error) {
	query := strings.TrimSpace(input.Query)

	results, err := s.passages.Search(ctx, query)
	if err != nil {
		s.recordError(ctx, err, "api search request failed", logrus.Fields{"query": query})
		return nil, apiError(err)
	}

	resp := &apiSearchResponse{}
	resp.Body.Query = query
	resp.Body.Count = len(results)
	resp.Body.Results = make([]passageJSON, 0, len(results))
	for _, p := range results {
		resp.Body.Results = append(resp.Body.Results, toPassageJSON(p))
	}

	return resp, nil
}

func (s *Server) apiPassageHandler(ctx context.Context, input *passageInput) (*apiPassageResponse, error) {
	p, err := s.passages.Lookup(ctx, input.ID)
	if err != nil {
		if !errors.Is(err, passage.ErrNotFound) {
			s.recordError(ctx, err, "api passage request failed", logrus.Fields{"passage_id": input.ID})
		}
		return nil, apiError(err)
	}

	return &apiPassageResponse{Body: toPassageJSON(*p)}, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"

	if s.health == nil {
		resp.Body.Database = "unchecked"
		return resp, nil
	}

	if err := s.health(ctx); err != nil {
		s.recordError(ctx, err, "pinging database", nil)
		resp.Status = stdhttp.StatusServiceUnavailable
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
	}

	return resp, nil
}

func toPassageJSON(p passage.Passage) passageJSON {
	return passageJSON{
		ID:            p.ID,
		Year:          p.Year,
		ExamType:      p.ExamType.String(),
		ExamTypeLabel: p.ExamType.Label(),
		Number:        p.Number,
		Category:      p.Category.String(),
		CategoryLabel: p.Category.Label(),
		Subject:       p.Subject,
		Content:       p.Content,
	}
}

func passageURL(id int64) string {
	return "/passages/" + strconv.FormatInt(id, 10)
}

func newHTMLResponse(status int, body []byte) *htmlResponse {
	return &htmlResponse{
		Status:      status,
		ContentType: htmlContentType,
		Body:        body,
	}
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}

// classifyError maps domain failures to a status code and a message for the reader. Storage
// failures never collapse into "not found" or an empty result list.
func classifyError(err error) (int, string) {
	switch {
	case err == nil:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	case errors.Is(err, passage.ErrNotFound):
		return stdhttp.StatusNotFound, "요청한 지문을 찾을 수 없습니다."
	case errors.Is(err, passage.ErrStorageTimeout):
		return stdhttp.StatusGatewayTimeout, "데이터베이스 응답이 지연되고 있습니다. 잠시 후 다시 시도해 주세요."
	case errors.Is(err, passage.ErrStorageUnavailable):
		return stdhttp.StatusServiceUnavailable, "지금은 지문 데이터베이스에 접근할 수 없습니다."
	case errors.Is(err, passage.ErrUnknownEnumValue):
		return stdhttp.StatusInternalServerError, "저장된 지문 정보가 올바르지 않습니다."
	default:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	}
}

func apiError(err error) error {
	status, message := classifyError(err)
	return huma.NewError(status, message)
}

func (s *Server) renderErrorResponse(ctx context.Context, status int, message string) (*htmlResponse, error) {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))
	body, err := renderComponent(ctx, templates.ErrorPage(templates.ErrorPageData{
		StatusLabel: label,
		Message:     message,
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering error page", logrus.Fields{"status": status})
		fallback := []byte(fmt.Sprintf("<html><body><h1>%s</h1><p>%s</p></body></html>", label, message))
		return newHTMLResponse(status, fallback), nil
	}

	return newHTMLResponse(status, body), nil
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
