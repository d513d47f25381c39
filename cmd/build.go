package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sahilg28/skillsync-backend/internal/ai"
	"github.com/sahilg28/skillsync-backend/internal/ai/gemini"
	"github.com/sahilg28/skillsync-backend/internal/events"
	"github.com/sahilg28/skillsync-backend/internal/logger"
	"github.com/sahilg28/skillsync-backend/internal/matching"
	"github.com/sahilg28/skillsync-backend/internal/secrets"
)

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func loadAPIKey(cfg *GeminiConfig) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
	})
}

func newGenerator(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*gemini.Generator, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai configuration is missing")
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := loadAPIKey(cfg.Gemini)
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := log.Named("ai").Named(gemini.Provider)
	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:         apiKey,
		Model:          cfg.Gemini.Model,
		MaxRetries:     cfg.Gemini.MaxRetries,
		RequestTimeout: cfg.Gemini.RequestTimeout,
		RatePerSecond:  cfg.Gemini.RatePerSecond,
		Burst:          cfg.Gemini.Burst,
		MaxLogLength:   cfg.Gemini.MaxLogLength,
	}, genLogger)
	if err != nil {
		return nil, fmt.Errorf("creating gemini generator: %w", err)
	}

	log.Info("ai gateway initialized", logger.GatewayFields(gemini.Provider, generator.Model())...)
	return generator, nil
}

// newGateway keeps the API up without a usable provider. Matching requests then
// fail as gateway unavailable.
func newGateway(ctx context.Context, cfg *AIConfig, log *zap.Logger) ai.Completer {
	generator, err := newGenerator(ctx, cfg, log)
	if err != nil {
		log.Warn("ai gateway disabled, matching requests will fail", zap.Error(err))
		return ai.Unavailable{Reason: err}
	}
	return generator
}

func matchingConfig(config *Config) matching.Config {
	cfg := matching.Config{}
	if config.Matching != nil {
		cfg.Timeout = config.Matching.Timeout
	}
	if config.AI != nil && config.AI.Gemini != nil {
		cfg.Temperature = ai.Float32(config.AI.Gemini.Temperature)
		cfg.MaxOutputTokens = config.AI.Gemini.MaxOutputTokens
		cfg.MaxLogLength = config.AI.Gemini.MaxLogLength
	}
	return cfg
}

// newPublisher returns a Redis publisher when events.redis-url is set and a
// no-op publisher otherwise. The returned func releases the connection.
func newPublisher(ctx context.Context, cfg *EventsConfig, log *zap.Logger) (events.Publisher, func(), error) {
	if cfg == nil || strings.TrimSpace(cfg.RedisURL) == "" {
		log.Info("event publishing disabled")
		return events.Nop{}, func() {}, nil
	}

	rdb, err := events.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	publisher := events.NewRedisPublisher(rdb, cfg.ChannelPrefix, log)
	log.Info("publishing events to redis", zap.String("channel", publisher.Channel("*")))

	return publisher, func() {
		if err := publisher.Close(); err != nil {
			log.Warn("closing redis publisher", zap.Error(err))
		}
	}, nil
}
