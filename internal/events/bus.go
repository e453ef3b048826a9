package events

import (
	"sync"

	"go.uber.org/zap"
)

// Action is what happened to a favorite.
type Action string

const (
	ActionDeleted Action = "deleted"
	ActionCreated Action = "created"
)

// FavoriteChanged tells sibling views to drop their cached favorite marker.
type FavoriteChanged struct {
	ID     string `json:"id"`
	UserID string `json:"userId,omitempty"`
	Action Action `json:"action"`

	// Remote is set on events received from another instance.
	Remote bool `json:"-"`
}

// Topic is a typed broadcast channel. Delivery is synchronous, unacknowledged
// and unordered across subscribers.
type Topic[T any] struct {
	name   string
	log    *zap.Logger
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(T)
}

func NewTopic[T any](name string, log *zap.Logger) *Topic[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Topic[T]{name: name, log: log, subs: map[int]func(T){}}
}

// Subscribe registers fn and returns a function that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Publish delivers v to every current subscriber. A panicking subscriber is
// logged and skipped.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	fns := make([]func(T), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		t.deliver(fn, v)
	}
}

func (t *Topic[T]) deliver(fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("subscriber panicked", zap.String("topic", t.name), zap.Any("panic", r))
		}
	}()
	fn(v)
}

// Len reports the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Bus groups the application topics. One per process, passed explicitly.
type Bus struct {
	FavoriteChanged *Topic[FavoriteChanged]
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		FavoriteChanged: NewTopic[FavoriteChanged]("favorite:changed", log),
	}
}
