package shared

import "context"

// EventHandler reacts to published events. Handlers observe; they never
// mutate the aggregate that raised the event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler wants. Empty means every type.
	EventTypes() []string
}

// EventPublisher hands events to whatever transport sits behind it
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is an EventPublisher that also routes events to subscribed handlers.
// Subscribe with no types falls back to handler.EventTypes().
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// PublishAndClear drains each aggregate's buffered events into publisher.
// Events are cleared even when publisher is nil; the first publish error
// stops the walk.
func PublishAndClear(ctx context.Context, publisher EventPublisher, aggregates ...AggregateRoot) error {
	for _, agg := range aggregates {
		pending := agg.GetDomainEvents()
		agg.ClearDomainEvents()
		if publisher == nil || len(pending) == 0 {
			continue
		}
		if err := publisher.Publish(ctx, pending...); err != nil {
			return err
		}
	}
	return nil
}
