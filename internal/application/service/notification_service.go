package service

import (
	"context"

	"github.com/garyjia/conference-requests/internal/application/dispatcher"
	"github.com/garyjia/conference-requests/internal/domain/event"
)

// NotificationService reacts to request events. Delivery is not configured:
// with notifications enabled it only records what would have been sent.
type NotificationService interface {
	// Register subscribes the service's handlers on d
	Register(d dispatcher.Dispatcher)
	HandleStatusChanged(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	enabled bool
	logger  Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(enabled bool, logger Logger) NotificationService {
	return &notificationServiceImpl{
		enabled: enabled,
		logger:  logger,
	}
}

func (n *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeStatusChanged, "status-notifier", n.HandleStatusChanged)
}

func (n *notificationServiceImpl) HandleStatusChanged(ctx context.Context, evt *event.Event) error {
	fields := []interface{}{
		"request_id", evt.RequestID,
		"actor", evt.Actor,
		"from", evt.FromStatus(),
		"to", evt.ToStatus(),
		"event_id", evt.ID,
	}
	if stage, ok := evt.ToStatus().PendingStage(); ok {
		fields = append(fields, "awaiting", stage)
	}
	n.logger.Info("Request status changed", fields...)

	if !n.enabled {
		return nil
	}

	n.logger.Info("Email notification skipped, no delivery channel configured",
		"request_id", evt.RequestID,
		"to_status", evt.ToStatus(),
	)
	return nil
}
