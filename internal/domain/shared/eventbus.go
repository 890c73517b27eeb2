package shared

import "context"

// EventHandler consumes domain events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes names the event types this handler wants. An empty
	// slice subscribes it to every event.
	EventTypes() []string
}

// EventPublisher is the write side of the event bus. Application
// services publish through this after their transactions commit.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber is the registration side of the event bus
type EventSubscriber interface {
	// Subscribe registers a handler. With no explicit types the
	// handler's EventTypes decide what it receives.
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}
