package engine

import (
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// Dispatcher delivers router events to observers in registration order.
// Observer panics are caught and logged; a broken observer must not be
// able to corrupt the coordinator mid-commit.
type Dispatcher struct {
	mu        sync.RWMutex
	observers []types.Observer
	logger    *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Subscribe appends an observer. Observers cannot be removed; routers
// are cheap enough to rebuild per composition root.
func (d *Dispatcher) Subscribe(observer types.Observer) {
	if observer == nil {
		return
	}
	d.mu.Lock()
	d.observers = append(d.observers, observer)
	d.mu.Unlock()
}

// Notify delivers one event to every observer.
func (d *Dispatcher) Notify(event types.Event) {
	d.mu.RLock()
	observers := make([]types.Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		d.deliver(observer, event)
	}
}

func (d *Dispatcher) deliver(observer types.Observer, event types.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("observer panicked", "event", event.Kind.String(), "panic", rec)
		}
	}()
	observer(event)
}
