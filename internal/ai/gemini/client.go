package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/sahilg28/skillsync-backend/internal/ai"
	"github.com/sahilg28/skillsync-backend/internal/logger"
	"github.com/sahilg28/skillsync-backend/internal/utils"
)

const (
	Provider = "gemini"

	defaultModel          = "gemini-2.5-flash"
	defaultMaxRetries     = 3
	defaultRequestTimeout = 30 * time.Second
	defaultMaxLogLength   = 200
	maxRetryDelay         = 8 * time.Second
)

var (
	retryBaseDelay = 500 * time.Millisecond
	wait           = utils.WaitFor

	errEmptyResponse = errors.New("gemini api returned empty response")
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.chats.Create(ctx, model, config, history)
}

// Config holds the process wide gateway settings.
type Config struct {
	APIKey         string
	Model          string
	MaxRetries     int
	RequestTimeout time.Duration
	RatePerSecond  float64
	Burst          int
	MaxLogLength   int
}

// Generator implements ai.Completer on top of the Gemini chat API. One
// Generator is built at startup and shared by every request.
type Generator struct {
	chats          chatCreator
	model          string
	maxRetries     int
	requestTimeout time.Duration
	limiter        *rate.Limiter
	maxLogLen      int
	logger         *zap.Logger
}

var _ ai.Completer = (*Generator)(nil)

func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Generator{
		chats:          genaiChats{chats: client.Chats},
		model:          model,
		maxRetries:     cfg.MaxRetries,
		requestTimeout: cfg.RequestTimeout,
		limiter:        limiter,
		maxLogLen:      cfg.MaxLogLength,
		logger:         logger.WithFields(log, logger.GatewayFields(Provider, model)...),
	}, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Complete sends prompt in a fresh chat session and returns the reply text.
// Unavailable and timed out attempts are retried with backoff; quota and
// malformed replies are returned at once.
func (g *Generator) Complete(ctx context.Context, prompt string, opts ai.Options) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	log := g.logger
	if log == nil {
		log = zap.NewNop()
	}

	config := buildConfig(opts)
	attempts := g.maxRetries
	if attempts <= 0 {
		attempts = 1
	}

	log.Debug("gemini request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.logLimit())),
		zap.Bool("json", opts.JSON),
	)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", classify(err)
			}
		}

		text, err := g.send(ctx, config, prompt)
		if err == nil {
			log.Debug("gemini response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(text)),
				zap.String("response_preview", utils.TruncateForLog(text, g.logLimit())),
			)
			return text, nil
		}

		lastErr = classify(err)
		if ctx.Err() != nil || !retryable(lastErr) || attempt == attempts {
			break
		}

		delay := backoff(attempt)
		log.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return "", classify(err)
		}
	}

	if ctx.Err() != nil {
		return "", classify(ctx.Err())
	}
	return "", lastErr
}

func (g *Generator) send(ctx context.Context, config *genai.GenerateContentConfig, prompt string) (string, error) {
	if g.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.requestTimeout)
		defer cancel()
	}

	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	return responseText(resp)
}

func (g *Generator) logLimit() int {
	if g.maxLogLen <= 0 {
		return defaultMaxLogLength
	}
	return g.maxLogLen
}

func buildConfig(opts ai.Options) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     opts.Temperature,
		MaxOutputTokens: opts.MaxOutputTokens,
	}
	if sys := strings.TrimSpace(opts.SystemInstruction); sys != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: sys}}}
	}
	if opts.JSON {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errEmptyResponse
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errEmptyResponse
	}
	return output, nil
}

// classify maps a provider failure onto the ai error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, errEmptyResponse) {
		return fmt.Errorf("%w: %w", ai.ErrGatewayMalformedResponse, err)
	}

	if apiErr, ok := asAPIError(err); ok {
		status := strings.ToUpper(apiErr.Status)
		switch {
		case apiErr.Code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
			return fmt.Errorf("%w: %w", ai.ErrGatewayQuotaExceeded, err)
		case apiErr.Code == http.StatusRequestTimeout || apiErr.Code == http.StatusGatewayTimeout || status == "DEADLINE_EXCEEDED":
			return fmt.Errorf("%w: %w", ai.ErrGatewayTimeout, err)
		default:
			return fmt.Errorf("%w: %w", ai.ErrGatewayUnavailable, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ai.ErrGatewayTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %w", ai.ErrGatewayUnavailable, err)
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

func retryable(err error) bool {
	if errors.Is(err, ai.ErrGatewayTimeout) {
		return true
	}
	if !errors.Is(err, ai.ErrGatewayUnavailable) {
		return false
	}
	// 4xx other than the ones classified above are caller mistakes.
	if apiErr, ok := asAPIError(err); ok && apiErr.Code >= 400 && apiErr.Code < 500 {
		return false
	}
	return true
}

func backoff(attempt int) time.Duration {
	delay := retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
