package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sahilg28/skillsync-backend/internal/ai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue []fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func (f *fakeChatCreator) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(_ context.Context, model string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func noWait(t *testing.T) {
	t.Helper()
	original := wait
	wait = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { wait = original })
}

func newTestGenerator(chats chatCreator, retries int) *Generator {
	return &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: retries,
		logger:     zap.NewNop(),
	}
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	noWait(t)

	chats := &fakeChatCreator{}
	chats.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	chats.enqueue(textResponse("retry ok"), nil)

	g := newTestGenerator(chats, 2)

	output, err := g.Complete(context.Background(), "message", ai.Options{
		SystemInstruction: "system",
		Temperature:       ai.Float32(0.7),
		MaxOutputTokens:   1000,
		JSON:              true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}

	for _, call := range chats.calls {
		if call.model != "gemini-pro" {
			t.Fatalf("unexpected model: %q", call.model)
		}
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if call.config.Temperature == nil || *call.config.Temperature != 0.7 {
			t.Fatalf("unexpected temperature: %v", call.config.Temperature)
		}
		if call.config.MaxOutputTokens != 1000 {
			t.Fatalf("unexpected max output tokens: %d", call.config.MaxOutputTokens)
		}
		if call.config.ResponseMIMEType != "application/json" {
			t.Fatalf("expected json mime type, got %q", call.config.ResponseMIMEType)
		}
		if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
			t.Fatalf("unexpected chat message: %+v", call.chat.messages)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	noWait(t)

	chats := &fakeChatCreator{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	chats.enqueue(nil, tempErr)
	chats.enqueue(nil, tempErr)

	_, err := newTestGenerator(chats, 2).Complete(context.Background(), "msg", ai.Options{})
	if !errors.Is(err, ai.ErrGatewayUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}
}

func TestGeneratorDoesNotRetry(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		err  error
		want error
	}{
		{
			name: "quota exhausted",
			err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Status:  "RESOURCE_EXHAUSTED",
				Message: "quota exhausted, retry after 60 seconds",
			},
			want: ai.ErrGatewayQuotaExceeded,
		},
		{
			name: "empty reply",
			resp: textResponse("   "),
			want: ai.ErrGatewayMalformedResponse,
		},
		{
			name: "bad request",
			err:  genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"},
			want: ai.ErrGatewayUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noWait(t)

			chats := &fakeChatCreator{}
			chats.enqueue(tt.resp, tt.err)
			chats.enqueue(textResponse("should not be used"), nil)

			_, err := newTestGenerator(chats, 3).Complete(context.Background(), "msg", ai.Options{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(chats.calls) != 1 {
				t.Fatalf("expected single call, got %d", len(chats.calls))
			}
		})
	}
}

func TestGeneratorClassifiesDeadlineAsTimeout(t *testing.T) {
	noWait(t)

	chats := &fakeChatCreator{}
	chats.enqueue(nil, context.DeadlineExceeded)

	_, err := newTestGenerator(chats, 1).Complete(context.Background(), "msg", ai.Options{})
	if !errors.Is(err, ai.ErrGatewayTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestGeneratorStopsWhenCallerDeadlinePasses(t *testing.T) {
	chats := &fakeChatCreator{}
	chats.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	original := wait
	wait = func(ctx context.Context, _ time.Duration) error {
		<-ctx.Done()
		return ctx.Err()
	}
	defer func() { wait = original }()

	_, err := newTestGenerator(chats, 3).Complete(ctx, "msg", ai.Options{})
	if !errors.Is(err, ai.ErrGatewayTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	if _, err := newTestGenerator(&fakeChatCreator{}, 1).Complete(context.Background(), "  ", ai.Options{}); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestBackoffIsCapped(t *testing.T) {
	if got := backoff(1); got != retryBaseDelay {
		t.Fatalf("unexpected first delay: %s", got)
	}
	if got := backoff(40); got != maxRetryDelay {
		t.Fatalf("expected cap, got %s", got)
	}
}
