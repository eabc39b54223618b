package event

import (
	"reflect"
	"strings"
	"sync"
)

// Priority orders the subscribers of one event type. Higher priorities run first.
type Priority int

const (
	PriorityLowest Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
	PriorityHighest
)

var priorityNames = [...]string{"lowest", "low", "normal", "high", "highest"}

func (p Priority) String() string {
	if p < PriorityLowest || p > PriorityHighest {
		return "unknown"
	}
	return priorityNames[p]
}

// ParsePriority maps a case-insensitive name ("high", "normal", ...) to a Priority.
func ParsePriority(s string) (Priority, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range priorityNames {
		if name == s {
			return Priority(i), true
		}
	}
	return PriorityNormal, false
}

// Cancellable is implemented by events whose default action may be vetoed.
type Cancellable interface {
	Cancel()
	SetCancelled(bool)
	Cancelled() bool
}

// Cancelable is embedded by event structs to satisfy Cancellable.
type Cancelable struct {
	cancelled bool
}

func (c *Cancelable) Cancel()             { c.cancelled = true }
func (c *Cancelable) SetCancelled(v bool) { c.cancelled = v }
func (c *Cancelable) Cancelled() bool     { return c.cancelled }

type subscriber struct {
	priority Priority
	fn       func(any)
}

type queued struct {
	t  reflect.Type
	ev any
}

// Bus carries two kinds of traffic.
//
// Cancellable events go through Post: delivered synchronously to every
// subscriber in priority order, and the caller inspects the final cancelled
// flag before performing its default action.
//
// Notifications of completed actions go through Emit: queued, and delivered
// to listeners by DispatchAll after the next SwapBuffers. Events emitted in
// tick N are readable in tick N+1.
//
// Dispatch is not reentrant for the same event type: a subscriber must not
// Post the type it is currently handling.
type Bus struct {
	mu        sync.Mutex // only protects handler registration
	subs      map[reflect.Type][]subscriber
	listeners map[reflect.Type][]func(any)
	front     []queued
	back      []queued
}

func NewBus() *Bus {
	return &Bus{
		subs:      make(map[reflect.Type][]subscriber),
		listeners: make(map[reflect.Type][]func(any)),
		front:     make([]queued, 0, 64),
		back:      make([]queued, 0, 64),
	}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Subscribe registers fn for events of type T at the given priority.
// Subscribers of equal priority run in registration order.
// Subscriptions are permanent.
func Subscribe[T any](b *Bus, priority Priority, fn func(*T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeKey[T]()
	s := subscriber{priority: priority, fn: func(ev any) { fn(ev.(*T)) }}

	list := b.subs[t]
	i := len(list)
	for j, existing := range list {
		if existing.priority < priority {
			i = j
			break
		}
	}
	list = append(list, subscriber{})
	copy(list[i+1:], list[i:])
	list[i] = s
	b.subs[t] = list
}

// Post delivers ev to every subscriber of its type and returns whether it
// ended up cancelled. Cancellation does not stop delivery.
func Post[T any, PT interface {
	*T
	Cancellable
}](b *Bus, ev PT) bool {
	for _, s := range b.subs[typeKey[T]()] {
		s.fn((*T)(ev))
	}
	return ev.Cancelled()
}

// Subscribers reports how many handlers are registered for T.
func Subscribers[T any](b *Bus) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[typeKey[T]()])
}

// Listen registers fn for notifications of type T queued with Emit.
func Listen[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeKey[T]()
	b.listeners[t] = append(b.listeners[t], func(ev any) { fn(ev.(T)) })
}

// Emit queues a notification into the back buffer.
func Emit[T any](b *Bus, ev T) {
	b.back = append(b.back, queued{t: typeKey[T](), ev: ev})
}

// SwapBuffers rotates back to front and clears the new back buffer.
// Called once per tick before DispatchAll.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	clear(b.back)
	b.back = b.back[:0]
}

// DispatchAll delivers front-buffer notifications in emission order.
func (b *Bus) DispatchAll() {
	for _, q := range b.front {
		for _, fn := range b.listeners[q.t] {
			fn(q.ev)
		}
	}
}

// Pending reports how many notifications wait in the back buffer.
func (b *Bus) Pending() int {
	return len(b.back)
}
