package events

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/entities"
)

// Listener reads combat log entries. Listeners never write back to the log.
type Listener interface {
	HandleEntry(entry entities.LogEntry) error
	Priority() int
	ID() string
}

// ListenerFunc adapts a function into a Listener
type ListenerFunc struct {
	Name   string
	Order  int
	Handle func(entry entities.LogEntry) error
}

func (f *ListenerFunc) ID() string    { return f.Name }
func (f *ListenerFunc) Priority() int { return f.Order }
func (f *ListenerFunc) HandleEntry(entry entities.LogEntry) error {
	return f.Handle(entry)
}

// Bus fans appended log entries out to listeners in priority order
type Bus struct {
	listeners map[entities.LogKind][]Listener
	all       []Listener
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewBus creates a new entry bus
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		listeners: make(map[entities.LogKind][]Listener),
		logger:    logger,
	}
}

// Subscribe adds a listener for one entry kind
func (b *Bus) Subscribe(kind entities.LogKind, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[kind] = append(b.listeners[kind], listener)
	sortByPriority(b.listeners[kind])

	b.logger.Debug("listener subscribed",
		zap.String("listener", listener.ID()),
		zap.String("kind", string(kind)),
		zap.Int("priority", listener.Priority()))
}

// SubscribeAll adds a listener for every entry kind
func (b *Bus) SubscribeAll(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.all = append(b.all, listener)
	sortByPriority(b.all)
}

// Unsubscribe removes a listener from one kind
func (b *Bus) Unsubscribe(kind entities.LogKind, listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[kind] = remove(b.listeners[kind], listenerID)
}

// UnsubscribeAll removes a listener added with SubscribeAll
func (b *Bus) UnsubscribeAll(listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.all = remove(b.all, listenerID)
}

// Publish implements entities.LogPublisher. A failing listener is logged
// and the rest still run; resolution never sees listener errors.
func (b *Bus) Publish(entry entities.LogEntry) {
	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.listeners[entry.Kind])+len(b.all))
	listeners = append(listeners, b.listeners[entry.Kind]...)
	listeners = append(listeners, b.all...)
	b.mu.RUnlock()

	sortByPriority(listeners)

	for _, listener := range listeners {
		if err := listener.HandleEntry(entry); err != nil {
			b.logger.Warn("listener failed",
				zap.String("listener", listener.ID()),
				zap.String("kind", string(entry.Kind)),
				zap.Int("seq", entry.Seq),
				zap.Error(err))
		}
	}
}

// Clear removes all listeners
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[entities.LogKind][]Listener)
	b.all = nil
}

func sortByPriority(listeners []Listener) {
	sort.SliceStable(listeners, func(i, j int) bool {
		return listeners[i].Priority() < listeners[j].Priority()
	})
}

func remove(listeners []Listener, id string) []Listener {
	out := listeners[:0]
	for _, l := range listeners {
		if l.ID() != id {
			out = append(out, l)
		}
	}
	return out
}
