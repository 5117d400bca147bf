package dispatcher

import (
	"context"

	"github.com/garyjia/conference-requests/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// subscription is a named handler registered for one event type
type subscription struct {
	name    string
	handler Handler
}
