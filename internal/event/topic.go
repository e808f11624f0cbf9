// Package event provides typed, explicitly registered notification channels
// for a single engine session.
package event

// Topic is an ordered list of subscribers for one notification type.
// Handlers run synchronously, in registration order, on the publishing
// goroutine. A Topic is not safe for concurrent use; the engine is
// single-threaded and publishes from within Tick or a command.
type Topic[T any] struct {
	subs   []*subscriber[T]
	nextID uint64
}

type subscriber[T any] struct {
	id     uint64
	fn     func(T)
	active bool
}

// Subscription is the handle returned by Subscribe.
type Subscription interface {
	Unsubscribe()
}

type subscription[T any] struct {
	topic *Topic[T]
	sub   *subscriber[T]
}

// Unsubscribe removes the handler. Calling it more than once is a no-op.
// Removing a handler from inside a Publish takes effect immediately for
// handlers not yet called in that pass.
func (s *subscription[T]) Unsubscribe() {
	if s.sub == nil || !s.sub.active {
		return
	}
	s.sub.active = false
	s.topic.remove(s.sub.id)
}

// Subscribe registers fn and returns a handle that removes it again.
func (t *Topic[T]) Subscribe(fn func(T)) Subscription {
	t.nextID++
	sub := &subscriber[T]{id: t.nextID, fn: fn, active: true}
	t.subs = append(t.subs, sub)
	return &subscription[T]{topic: t, sub: sub}
}

// Publish delivers v to every active subscriber.
// Subscribers added while publishing are not called until the next Publish.
func (t *Topic[T]) Publish(v T) {
	snapshot := t.subs
	for _, sub := range snapshot {
		if sub.active {
			sub.fn(v)
		}
	}
}

// Len returns the number of active subscribers.
func (t *Topic[T]) Len() int {
	return len(t.subs)
}

// Clear drops every subscriber.
func (t *Topic[T]) Clear() {
	for _, sub := range t.subs {
		sub.active = false
	}
	t.subs = nil
}

func (t *Topic[T]) remove(id uint64) {
	// Copy so an in-flight Publish keeps iterating its own snapshot.
	next := make([]*subscriber[T], 0, len(t.subs))
	for _, sub := range t.subs {
		if sub.id != id {
			next = append(next, sub)
		}
	}
	t.subs = next
}

// Group collects subscriptions so an owner can release them together.
type Group struct {
	subs []Subscription
}

// Add tracks s and returns it.
func (g *Group) Add(s Subscription) Subscription {
	g.subs = append(g.subs, s)
	return s
}

// Close unsubscribes everything in the group, newest first.
func (g *Group) Close() {
	for i := len(g.subs) - 1; i >= 0; i-- {
		g.subs[i].Unsubscribe()
	}
	g.subs = nil
}
