package matching

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sahilg28/skillsync-backend/internal/jobboard"
	"github.com/sahilg28/skillsync-backend/internal/logger"
	"github.com/sahilg28/skillsync-backend/internal/store"
)

// Match is one entry of the final response: the full job plus match details.
type Match struct {
	*jobboard.Job
	SkillMatches int      `json:"skillMatches"`
	MatchScore   *float64 `json:"matchScore,omitempty"`
	Reasoning    string   `json:"reasoning,omitempty"`
}

type jobGetter interface {
	GetJob(ctx context.Context, id string) (*jobboard.Job, error)
}

// shapeResults re-reads every ranked job and drops the ones that disappeared
// or were deactivated since the candidate snapshot. Survivors are returned as
// they were ranked; later edits do not leak into the response.
func shapeResults(ctx context.Context, jobs jobGetter, ranked []Candidate, shape Shape, log *zap.Logger) ([]Match, error) {
	out := make([]Match, 0, len(ranked))
	for _, c := range ranked {
		job, err := jobs.GetJob(ctx, c.Job.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			logRace(log, c.Job.ID, "deleted")
			continue
		case err != nil:
			return nil, err
		case !job.IsActive:
			logRace(log, c.Job.ID, "deactivated")
			continue
		}

		m := Match{Job: c.Job, SkillMatches: c.SkillMatches}
		if shape == ShapeStructured {
			m.MatchScore = c.MatchScore
			m.Reasoning = c.Reasoning
		}
		out = append(out, m)
	}
	return out, nil
}

func logRace(log *zap.Logger, jobID, reason string) {
	log.Warn("dropping ranked job",
		zap.String(logger.FieldJobID, jobID),
		zap.String("reason", reason),
		zap.Error(ErrJobLookupRace),
	)
}
