// Package events announces data changes to downstream consumers.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	RecordsImported     = "records.imported"
	RecordsDeleted      = "records.deleted"
	RecordsCleared      = "records.cleared"
	DuplicatesRemoved   = "duplicates.removed"
	SubmissionReceived  = "submission.received"
	SubmissionsPromoted = "submissions.promoted"
)

// Event is a change notification. Count is the number of affected records.
type Event struct {
	Type       string    `json:"type"`
	TeamID     string    `json:"team_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	Count      int       `json:"count"`
	IDs        []string  `json:"ids,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
