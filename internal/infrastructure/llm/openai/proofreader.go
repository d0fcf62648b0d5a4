package openai

import (
	"context"
	"regexp"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"guka/app/internal/domain/corpus"
)

// ProofreaderOptions configures the chat-completion backed proofreader.
type ProofreaderOptions struct {
	Client       *Client
	Model        string
	SystemPrompt string
}

type proofreader struct {
	client       *Client
	logger       *logrus.Logger
	model        string
	systemPrompt string
}

const defaultProofreadPrompt = `당신은 한국어 맞춤법 교정기입니다.
입력 문장의 맞춤법, 띄어쓰기, 문장 부호 오류만 고치세요.
내용을 바꾸거나 덧붙이지 말고, 설명 없이 교정된 본문만 그대로 출력하세요.
입력에 있는 &lt; &gt; &amp; 같은 표기는 그대로 두세요.`

var markupPattern = regexp.MustCompile(`(?i)</?(p|div|span|br|body|html)\b[^>]*>`)

var _ corpus.Proofreader = (*proofreader)(nil)

// NewProofreader constructs a corpus.Proofreader backed by a chat completion model.
func NewProofreader(opts ProofreaderOptions) (corpus.Proofreader, error) {
	if opts.Client == nil {
		return nil, eris.New("llm client is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("proofreader model is required")
	}

	systemPrompt := strings.TrimSpace(opts.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultProofreadPrompt
	}

	return &proofreader{
		client:       opts.Client,
		logger:       opts.Client.logger,
		model:        model,
		systemPrompt: systemPrompt,
	}, nil
}

func (p *proofreader) Proofread(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.systemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
	}

	completion, err := p.client.chat.New(ctx, params)
	if err != nil {
		p.logError(err, "requesting chat completion")
		return "", eris.Wrap(err, "requesting chat completion")
	}

	if len(completion.Choices) == 0 {
		err := eris.New("llm completion returned no choices")
		p.logError(err, "processing chat completion")
		return "", err
	}

	choice := completion.Choices[0]
	if strings.EqualFold(strings.TrimSpace(choice.FinishReason), "content_filter") {
		err := eris.New("llm blocked the request via content filter")
		p.logError(err, "proofreader blocked")
		return "", err
	}

	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		err := eris.Errorf("llm refused to proofread: %s", refusal)
		p.logError(err, "proofreader refused")
		return "", err
	}

	corrected := cleanCorrection(choice.Message.Content)
	if corrected == "" {
		err := eris.New("llm response content is empty")
		p.logError(err, "empty llm response")
		return "", err
	}

	return corrected, nil
}

func (p *proofreader) logError(err error, message string) {
	if p.logger == nil || err == nil {
		return
	}
	p.logger.WithField("error", err.Error()).Error(message)
}

// cleanCorrection removes code fences and any markup a model wraps around plain text.
func cleanCorrection(content string) string {
	trimmed := stripCodeFence(strings.TrimSpace(content))
	if !markupPattern.MatchString(trimmed) {
		return trimmed
	}
	return strings.TrimSpace(textContent(trimmed))
}

// textContent keeps text tokens verbatim, so entities are not decoded, and turns block
// boundaries into line breaks.
func textContent(markup string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))

	var builder strings.Builder
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return builder.String()
		case html.TextToken:
			builder.Write(tokenizer.Raw())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "br":
				builder.WriteByte('\n')
			case "p", "div":
				if builder.Len() > 0 && !strings.HasSuffix(builder.String(), "\n") {
					builder.WriteByte('\n')
				}
			}
		}
	}
}

func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}

	body := content[3:]
	newline := strings.IndexByte(body, '\n')
	if newline == -1 {
		return content
	}
	body = body[newline+1:]

	trimmedBody := strings.TrimRight(body, " \t\r\n")
	if !strings.HasSuffix(trimmedBody, "```") {
		return content
	}

	trimmedBody = strings.TrimRight(trimmedBody[:len(trimmedBody)-3], " \t\r\n")
	return strings.TrimSpace(trimmedBody)
}
