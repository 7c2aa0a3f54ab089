// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"ic-control/internal/model"
)

// EventBus decouples session callbacks from websocket fan-out
type EventBus struct {
	subscribers map[model.EventType][]chan model.SessionEvent
	all         []chan model.SessionEvent
	events      chan model.SessionEvent
	done        chan struct{}
	stopOnce    sync.Once
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		subscribers: make(map[model.EventType][]chan model.SessionEvent),
		events:      make(chan model.SessionEvent, 1000),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Start distributes events until Stop is called
func (eb *EventBus) Start() {
	for {
		select {
		case event := <-eb.events:
			eb.distributeEvent(event)
		case <-eb.done:
			return
		}
	}
}

// Stop ends Start
func (eb *EventBus) Stop() {
	eb.stopOnce.Do(func() { close(eb.done) })
}

// Publish queues an event without blocking the publisher
func (eb *EventBus) Publish(event model.SessionEvent) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.Type)),
		)
	}
}

// Subscribe returns a channel receiving the given event types, or every
// event when none are given
func (eb *EventBus) Subscribe(types ...model.EventType) <-chan model.SessionEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.SessionEvent, 100)
	if len(types) == 0 {
		eb.all = append(eb.all, subscriber)
		return subscriber
	}
	for _, t := range types {
		eb.subscribers[t] = append(eb.subscribers[t], subscriber)
	}
	return subscriber
}

func (eb *EventBus) distributeEvent(event model.SessionEvent) {
	eb.mutex.RLock()
	subscribers := append(append([]chan model.SessionEvent(nil), eb.subscribers[event.Type]...), eb.all...)
	eb.mutex.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
			eb.logger.Warn("Slow event subscriber, skipping event",
				zap.String("event_type", string(event.Type)),
			)
		}
	}
}
