// Package matching ranks active job postings for a user profile with help
// from an inference gateway.
//
// The gateway only proposes candidates. Membership is decided by the parser,
// which ignores anything that does not reference a known job, and the final
// order is always recomputed locally from skill overlap.
package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sahilg28/skillsync-backend/internal/ai"
	"github.com/sahilg28/skillsync-backend/internal/jobboard"
	"github.com/sahilg28/skillsync-backend/internal/logger"
	"github.com/sahilg28/skillsync-backend/internal/store"
	"github.com/sahilg28/skillsync-backend/internal/utils"
)

const (
	defaultTimeout         = 60 * time.Second
	defaultTemperature     = 0.7
	defaultMaxOutputTokens = 1000
	defaultMaxLogLength    = 200
)

type Config struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	// Temperature nil means the default; zero is a valid setting.
	Temperature     *float32      `mapstructure:"temperature"`
	MaxOutputTokens int32         `mapstructure:"max-output-tokens"`
	MaxLogLength    int           `mapstructure:"max-log-length"`
}

// Stage records how many candidates one pipeline step received and kept.
type Stage struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

// Outcome is the result of a matching request.
type Outcome struct {
	Matches []Match
	Stages  []Stage
}

type Matcher struct {
	profiles store.ProfileStore
	jobs     store.JobStore
	gateway  ai.Completer
	cfg      Config
	logger   *zap.Logger
}

func NewMatcher(profiles store.ProfileStore, jobs store.JobStore, gateway ai.Completer, cfg Config, log *zap.Logger) *Matcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Temperature == nil || *cfg.Temperature < 0 {
		cfg.Temperature = ai.Float32(defaultTemperature)
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxOutputTokens
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Matcher{
		profiles: profiles,
		jobs:     jobs,
		gateway:  gateway,
		cfg:      cfg,
		logger:   log,
	}
}

// FindMatches runs the pipeline for userID. The gateway is not called when the
// user has no profile or there are no active jobs.
func (m *Matcher) FindMatches(ctx context.Context, userID string, shape Shape) (*Outcome, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("unknown match shape %q", shape)
	}

	log := m.logger.With(zap.String(logger.FieldUserID, userID), zap.String("shape", string(shape)))
	outcome := &Outcome{}
	stage := func(name string, initial, left int) {
		s := Stage{Name: name, Initial: initial, Dropped: initial - left, Left: left}
		outcome.Stages = append(outcome.Stages, s)
		log.Info("matching stage",
			zap.String("stage", s.Name),
			zap.Int("initial", s.Initial),
			zap.Int("dropped", s.Dropped),
			zap.Int("left", s.Left),
		)
	}

	profile, err := m.profiles.GetProfileByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMissingProfile
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	jobs, err := m.jobs.ListActiveJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}
	stage("candidates", len(jobs), len(jobs))

	prompt, err := BuildPrompt(profile, jobs, shape)
	if err != nil {
		return nil, err
	}

	raw, err := m.complete(ctx, prompt, shape, log)
	if err != nil {
		return nil, err
	}

	parsed, err := m.parse(raw, jobs, shape)
	if err != nil {
		log.Warn("gateway reply could not be parsed",
			zap.Error(err),
			zap.String("response_preview", utils.TruncateForLog(raw, m.cfg.MaxLogLength)),
		)
		return nil, err
	}
	stage("parse", len(jobs), len(parsed))

	ranked := Rank(parsed, profile.Skills)
	stage("rank", len(parsed), len(ranked))

	matches, err := shapeResults(ctx, m.jobs, ranked, shape, log)
	if err != nil {
		return nil, fmt.Errorf("load ranked jobs: %w", err)
	}
	stage("shape", len(ranked), len(matches))

	outcome.Matches = matches
	return outcome, nil
}

func (m *Matcher) complete(ctx context.Context, prompt string, shape Shape, log *zap.Logger) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	opts := ai.Options{
		Temperature:     ai.Float32(*m.cfg.Temperature),
		MaxOutputTokens: m.cfg.MaxOutputTokens,
	}
	if shape == ShapeStructured {
		opts.SystemInstruction = strings.TrimSpace(systemInstruction)
		opts.JSON = true
	}

	log.Debug("calling inference gateway",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.cfg.MaxLogLength)),
	)

	started := time.Now()
	raw, err := m.gateway.Complete(ctx, prompt, opts)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ai.ErrGatewayTimeout) {
			err = fmt.Errorf("%w: %w", ai.ErrGatewayTimeout, err)
		}
		log.Error("inference gateway failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return "", err
	}

	log.Debug("inference gateway replied",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.cfg.MaxLogLength)),
	)
	return raw, nil
}

func (m *Matcher) parse(raw string, jobs []*jobboard.Job, shape Shape) ([]Candidate, error) {
	if shape == ShapeStructured {
		return ParseStructured(raw, jobs)
	}
	return ParsePlainList(raw, jobs), nil
}
