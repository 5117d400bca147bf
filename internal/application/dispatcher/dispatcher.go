package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/garyjia/conference-requests/internal/domain/event"
)

// ErrClosed is returned when closing a dispatcher twice
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher fans request events out to registered handlers
type Dispatcher interface {
	// Subscribe registers a named handler for an event type
	Subscribe(eventType event.Type, name string, handler Handler)

	// DispatchAsync runs the event's handlers in the background, one after
	// another in registration order. A failing handler does not stop the others.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Handlers returns the handler names registered for an event type
	Handlers(eventType event.Type) []string

	// Close waits for in-flight async handlers and rejects further events
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu            sync.RWMutex
	subscriptions map[event.Type][]subscription
	logger        Logger

	// closed is guarded by mu so no DispatchAsync can add to wg once Close waits
	wg     sync.WaitGroup
	closed bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		subscriptions: make(map[event.Type][]subscription),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.subscriptions[eventType] = append(d.subscriptions[eventType], subscription{name: name, handler: handler})
	d.logInfo("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logError("Cannot dispatch async event, dispatcher is closed", "event_type", evt.Type, "event_id", evt.ID)
		return
	}
	subs := append([]subscription(nil), d.subscriptions[evt.Type]...)
	if len(subs) == 0 {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	// Handlers outlive the request that triggered them
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer d.wg.Done()
		d.dispatch(ctx, evt, subs)
	}()
}

// dispatch runs subs in order, logging each failure
func (d *eventDispatcher) dispatch(ctx context.Context, evt *event.Event, subs []subscription) {
	for _, sub := range subs {
		if err := d.safeExecute(ctx, evt, sub); err != nil {
			d.logError("Handler error", "event_type", evt.Type, "event_id", evt.ID, "handler_name", sub.name, "error", err)
		}
	}
}

func (d *eventDispatcher) Handlers(eventType event.Type) []string {
	subs := d.snapshot(eventType)
	names := make([]string, len(subs))
	for i, s := range subs {
		names[i] = s.name
	}
	return names
}

func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
	d.logInfo("Dispatcher closed")
	return nil
}

func (d *eventDispatcher) snapshot(eventType event.Type) []subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]subscription(nil), d.subscriptions[eventType]...)
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, sub subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return sub.handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *eventDispatcher) logError(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
