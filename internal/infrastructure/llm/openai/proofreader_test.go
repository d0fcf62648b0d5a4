package openai

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared/constant"
	"github.com/sirupsen/logrus"
)

type fakeChatService struct {
	response   *openai.ChatCompletion
	err        error
	calls      int
	lastParams openai.ChatCompletionNewParams
}

func (f *fakeChatService) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.calls++
	f.lastParams = body
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func completionWith(content, finishReason, refusal string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		ID:     "proof-1",
		Model:  "test-model",
		Object: constant.ValueOf[constant.ChatCompletion](),
		Choices: []openai.ChatCompletionChoice{
			{
				FinishReason: finishReason,
				Message: openai.ChatCompletionMessage{
					Content: content,
					Refusal: refusal,
					Role:    constant.ValueOf[constant.Assistant](),
				},
			},
		},
	}
}

func newTestProofreader(t *testing.T, chat *fakeChatService) *proofreader {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := &Client{chat: chat, logger: logger, baseURL: "https://fake-llm-provider.ai/api/v1"}
	p, err := NewProofreader(ProofreaderOptions{Client: client, Model: "llm-stub-model"})
	if err != nil {
		t.Fatalf("NewProofreader returned error: %v", err)
	}
	return p.(*proofreader)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientOptions{}); err == nil {
		t.Fatalf("expected error when API key is missing")
	}
}

func TestNewProofreaderRequiresModel(t *testing.T) {
	t.Parallel()

	if _, err := NewProofreader(ProofreaderOptions{Client: &Client{}}); err == nil {
		t.Fatalf("expected error when model is missing")
	}
	if _, err := NewProofreader(ProofreaderOptions{Model: "m"}); err == nil {
		t.Fatalf("expected error when client is missing")
	}
}

func TestProofreadReturnsCorrection(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{response: completionWith("그렇게 돼요.", "stop", "")}
	p := newTestProofreader(t, chat)

	got, err := p.Proofread(context.Background(), "그렇게 되요.")
	if err != nil {
		t.Fatalf("Proofread returned error: %v", err)
	}
	if got != "그렇게 돼요." {
		t.Fatalf("unexpected correction %q", got)
	}
	if chat.lastParams.Model != "llm-stub-model" {
		t.Fatalf("expected model llm-stub-model, got %s", chat.lastParams.Model)
	}
	if len(chat.lastParams.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(chat.lastParams.Messages))
	}
}

func TestProofreadSkipsBlankText(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{}
	p := newTestProofreader(t, chat)

	got, err := p.Proofread(context.Background(), "  ")
	if err != nil || got != "  " {
		t.Fatalf("expected blank text returned untouched, got %q, %v", got, err)
	}
	if chat.calls != 0 {
		t.Fatalf("expected no upstream call, got %d", chat.calls)
	}
}

func TestProofreadFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]*fakeChatService{
		"transport":      {err: errors.New("connection reset")},
		"no choices":     {response: &openai.ChatCompletion{}},
		"content filter": {response: completionWith("x", "content_filter", "")},
		"refusal":        {response: completionWith("", "stop", "no")},
		"empty":          {response: completionWith("   ", "stop", "")},
	}

	for name, chat := range cases {
		chat := chat
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if _, err := newTestProofreader(t, chat).Proofread(context.Background(), "문장."); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCleanCorrection(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"```text\n고친 문장.\n```":          "고친 문장.",
		"<p>첫 줄</p><p>둘째 줄</p>":         "첫 줄\n둘째 줄",
		"<div>A &lt;B&gt;<br>C</div>":    "A &lt;B&gt;\nC",
		"부등호 a < b 는 그대로":               "부등호 a < b 는 그대로",
		"  앞뒤 공백  ":                      "앞뒤 공백",
	}

	for input, want := range cases {
		if got := cleanCorrection(input); got != want {
			t.Errorf("cleanCorrection(%q) = %q, want %q", input, got, want)
		}
	}
}
