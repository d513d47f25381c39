package matching

import "errors"

var (
	// ErrMissingProfile is returned when the caller has no profile.
	ErrMissingProfile = errors.New("user profile not found")
	// ErrEmptyCandidateSet is returned when there are no active jobs to match against.
	ErrEmptyCandidateSet = errors.New("no jobs available")
	// ErrMalformedGatewayPayload is returned when a structured reply cannot be read.
	ErrMalformedGatewayPayload = errors.New("malformed gateway payload")
	// ErrJobLookupRace marks a ranked job that vanished or was deactivated
	// between the candidate snapshot and shaping. It is logged, not returned.
	ErrJobLookupRace = errors.New("job changed during matching")
)
