package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/devplatform/github-automation/internal/models"
)

// Router dispatches a stored webhook event to the handler for its event type.
// Dispatch is synchronous: it does not return until the handler reached a
// terminal state. Unrecognized event types are a no-op; the event stays
// stored for audit.
type Router struct {
	processor *Processor
	logger    *logrus.Logger
}

func NewRouter(processor *Processor, logger *logrus.Logger) *Router {
	return &Router{processor: processor, logger: logger}
}

func (r *Router) Dispatch(ctx context.Context, event *models.WebhookEvent) error {
	switch event.EventType {
	case "push":
		var payload models.PushPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode push payload: %w", err)
		}
		return r.processor.ProcessPush(ctx, event, &payload)

	case "pull_request":
		var payload models.PullRequestPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode pull_request payload: %w", err)
		}
		return r.processor.ProcessPullRequest(ctx, event, &payload)

	default:
		r.logger.WithFields(logrus.Fields{
			"event_type":  event.EventType,
			"delivery_id": event.DeliveryID,
		}).Info("No handler for event type, stored for audit only")
		return nil
	}
}
