package httpapi

import (
	"context"

	"go.uber.org/zap"

	"github.com/sahilg28/skillsync-backend/internal/events"
	"github.com/sahilg28/skillsync-backend/internal/matching"
	"github.com/sahilg28/skillsync-backend/internal/store"
)

type MatchFinder interface {
	FindMatches(ctx context.Context, userID string, shape matching.Shape) (*matching.Outcome, error)
}

type Deps struct {
	Store     store.Store
	Matcher   MatchFinder
	Publisher events.Publisher
	Logger    *zap.Logger

	// Production hides raw error details from responses.
	Production bool
	// HardDelete makes the admin delete route remove postings instead of deactivating them.
	HardDelete bool
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}
