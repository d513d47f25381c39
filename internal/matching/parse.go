package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/sahilg28/skillsync-backend/internal/jobboard"
)

// Candidate is a job the gateway proposed, with whatever commentary it gave.
type Candidate struct {
	Job          *jobboard.Job
	MatchScore   *float64
	Reasoning    string
	SkillMatches int
}

// ParsePlainList reads a comma separated list of titles. Tokens that do not
// exactly equal a candidate title are dropped. Output follows the order of
// first mention; a title shared by several jobs yields all of them.
func ParsePlainList(raw string, jobs []*jobboard.Job) []Candidate {
	byTitle := make(map[string][]*jobboard.Job, len(jobs))
	for _, job := range jobs {
		byTitle[job.Title] = append(byTitle[job.Title], job)
	}

	out := make([]Candidate, 0)
	seen := make(map[string]struct{})
	for _, token := range strings.Split(raw, ",") {
		title := strings.TrimSpace(token)
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		matched, ok := byTitle[title]
		if !ok {
			continue
		}
		seen[title] = struct{}{}
		for _, job := range matched {
			out = append(out, Candidate{Job: job})
		}
	}

	return out
}

type recommendation struct {
	JobID      string `mapstructure:"jobId"`
	MatchScore any    `mapstructure:"matchScore"`
	Reasoning  string `mapstructure:"reasoning"`
}

// ParseStructured reads a {"recommendations": [...]} reply. Entries whose
// jobId is not in jobs are dropped; a repeated jobId keeps its first entry.
func ParseStructured(raw string, jobs []*jobboard.Job) ([]Candidate, error) {
	payload, err := decodePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGatewayPayload, err)
	}

	entries, ok := payload["recommendations"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: recommendations array is missing", ErrMalformedGatewayPayload)
	}

	byID := make(map[string]*jobboard.Job, len(jobs))
	for _, job := range jobs {
		byID[job.ID] = job
	}

	out := make([]Candidate, 0, len(entries))
	seen := make(map[string]struct{})
	for _, entry := range entries {
		var rec recommendation
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &rec,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(entry); err != nil {
			continue
		}

		id := strings.TrimSpace(rec.JobID)
		job, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		out = append(out, Candidate{
			Job:        job,
			MatchScore: coerceScore(rec.MatchScore),
			Reasoning:  strings.TrimSpace(rec.Reasoning),
		})
	}

	return out, nil
}

const payloadKey = "recommendations"

// decodePayload finds the JSON object carrying the recommendations in a reply
// that may wrap it in code fences or prose. A fenced block is tried before the
// whole reply; inside each, every '{' is tried as the start of an object. The
// first object holding the recommendations key wins, otherwise the first
// object decoded at all.
func decodePayload(raw string) (map[string]any, error) {
	var fallback map[string]any
	var firstErr error

	for _, text := range payloadSources(raw) {
		for i := strings.IndexByte(text, '{'); i != -1; {
			var obj map[string]any
			err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&obj)
			switch {
			case err != nil:
				if firstErr == nil {
					firstErr = err
				}
			case obj != nil:
				if _, ok := obj[payloadKey]; ok {
					return obj, nil
				}
				if fallback == nil {
					fallback = obj
				}
			}

			next := strings.IndexByte(text[i+1:], '{')
			if next == -1 {
				break
			}
			i += next + 1
		}
	}

	if fallback != nil {
		return fallback, nil
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, errors.New("no JSON object found")
}

// payloadSources returns the first fenced block, if any, followed by the reply.
func payloadSources(raw string) []string {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "```")
	if start == -1 {
		return []string{raw}
	}
	rest := raw[start+3:]
	if end := strings.Index(rest, "```"); end != -1 {
		rest = rest[:end]
	}
	return []string{rest, raw}
}

func coerceScore(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "%"))
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
