package service

import (
	"context"
	"time"

	"beneficiary-data/internal/events"

	"go.uber.org/zap"
)

// notifier publishes change events. A failed publish is logged and dropped.
type notifier struct {
	pub    events.Publisher
	logger *zap.Logger
}

func (n notifier) publish(ctx context.Context, e events.Event) {
	if n.pub == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := n.pub.Publish(ctx, e); err != nil {
		n.logger.Warn("failed to publish event",
			zap.String("type", e.Type),
			zap.String("team_id", e.TeamID),
			zap.Error(err),
		)
	}
}
