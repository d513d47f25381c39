// Package events announces job board changes to other services.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const Version = 1

const (
	JobCreated      = "job.created"
	JobUpdated      = "job.updated"
	JobActivated    = "job.activated"
	JobDeactivated  = "job.deactivated"
	JobDeleted      = "job.deleted"
	ProfileUpserted = "profile.upserted"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Publisher delivers events on a best effort basis. Failures are logged by
// the implementation and never reach the caller.
type Publisher interface {
	Publish(ctx context.Context, typ, requestID string, data any)
}

var now = func() time.Time { return time.Now().UTC() }

// Encode builds the wire form of an event.
func Encode(typ, requestID string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Event{
		Type:      typ,
		Version:   Version,
		At:        now(),
		RequestID: requestID,
		Data:      raw,
	})
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) {}
