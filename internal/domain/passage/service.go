package passage

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Service defines the read operations the presentation layer and tooling rely on.
type Service interface {
	Search(ctx context.Context, query string) ([]Passage, error)
	Lookup(ctx context.Context, rawID string) (*Passage, error)
	Get(ctx context.Context, id int64) (*Passage, error)
	Count(ctx context.Context) (int64, error)
	Sample(ctx context.Context) (*Passage, error)
	Import(ctx context.Context, passages []Passage) error
}

type service struct {
	repo      Repository
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

var _ Service = (*service)(nil)

// NewService wires the passage service with its dependencies.
func NewService(repo Repository, logger *logrus.Logger, hub *sentry.Hub) (Service, error) {
	if repo == nil {
		return nil, eris.New("passage repository is required")
	}

	return &service{
		repo:      repo,
		logger:    logger,
		sentryHub: hub,
	}, nil
}

// ParseID parses a passage identifier. Only plain base-10 digits are accepted.
func ParseID(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, eris.Wrap(ErrInvalidIdentifier, "identifier is empty")
	}

	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return 0, eris.Wrapf(ErrInvalidIdentifier, "identifier %q is not numeric", raw)
		}
	}

	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(ErrInvalidIdentifier, "identifier %q out of range", raw)
	}

	return id, nil
}

func (s *service) Search(ctx context.Context, query string) ([]Passage, error) {
	trimmedQuery := strings.TrimSpace(query)
	if trimmedQuery == "" {
		return []Passage{}, nil
	}

	passages, err := s.repo.Search(ctx, SearchCriteria{Query: trimmedQuery})
	if err != nil {
		wrapped := classifyFailure("searching passages", err)
		s.recordError(logrus.Fields{"query": trimmedQuery}, wrapped, "searching passages")
		return nil, wrapped
	}

	results := make([]Passage, 0, len(passages))
	for _, p := range passages {
		results = append(results, p.Decoded())
	}

	return results, nil
}

func (s *service) Lookup(ctx context.Context, rawID string) (*Passage, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, eris.Wrap(ErrNotFound, err.Error())
	}

	return s.Get(ctx, id)
}

func (s *service) Get(ctx context.Context, id int64) (*Passage, error) {
	if id < 0 {
		return nil, eris.Wrapf(ErrNotFound, "passage %d", id)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		wrapped := classifyFailure("loading passage", err)
		s.recordError(logrus.Fields{"passage_id": id}, wrapped, "loading passage")
		return nil, wrapped
	}

	if p == nil {
		return nil, eris.Wrapf(ErrNotFound, "passage %d", id)
	}

	decoded := p.Decoded()
	return &decoded, nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		wrapped := classifyFailure("counting passages", err)
		s.recordError(nil, wrapped, "counting passages")
		return 0, wrapped
	}

	return count, nil
}

func (s *service) Sample(ctx context.Context) (*Passage, error) {
	p, err := s.repo.First(ctx)
	if err != nil {
		wrapped := classifyFailure("loading sample passage", err)
		s.recordError(nil, wrapped, "loading sample passage")
		return nil, wrapped
	}

	if p == nil {
		return nil, eris.Wrap(ErrNotFound, "storage holds no passages")
	}

	decoded := p.Decoded()
	return &decoded, nil
}

func (s *service) Import(ctx context.Context, passages []Passage) error {
	for idx := range passages {
		if err := Validate(passages[idx]); err != nil {
			return eris.Wrapf(err, "validating passage at index %d", idx)
		}
	}

	if len(passages) == 0 {
		return nil
	}

	if err := s.repo.Upsert(ctx, passages); err != nil {
		wrapped := classifyFailure("importing passages", err)
		s.recordError(logrus.Fields{"count": len(passages)}, wrapped, "importing passages")
		return wrapped
	}

	return nil
}

// classifyFailure keeps corrupt-record errors distinct from store outages.
func classifyFailure(op string, err error) error {
	if errors.Is(err, ErrUnknownEnumValue) {
		return eris.Wrap(err, op)
	}
	return NewStorageError(op, err)
}

// Validate checks the metadata invariants of a passage.
func Validate(p Passage) error {
	if p.ID <= 0 {
		return eris.Wrapf(ErrInvalidIdentifier, "passage id %d must be positive", p.ID)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return eris.Errorf("passage %d subject is required", p.ID)
	}
	if p.ExamType.Rank() < 0 {
		return eris.Wrapf(ErrUnknownEnumValue, "passage %d exam type %q", p.ID, p.ExamType)
	}
	if p.Category.Label() == "" {
		return eris.Wrapf(ErrUnknownEnumValue, "passage %d category %q", p.ID, p.Category)
	}
	return nil
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
