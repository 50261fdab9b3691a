// Package bus is a process-local publish/subscribe channel used to keep
// decoupled UI pieces (tray menu, terminal host) in sync with the timer
// without holding a reference to it.
package bus

import "sync"

// Topic names a stream of messages.
type Topic string

const (
	// TopicPauseState carries PauseState after every pause flip.
	TopicPauseState Topic = "takearest.pause_state_changed"
	// TopicTogglePause carries TogglePause requests for the timer.
	TopicTogglePause Topic = "takearest.toggle_pause"
)

// PauseState is the payload of TopicPauseState.
type PauseState struct {
	IsPaused bool
}

// TogglePause is the payload of TopicTogglePause.
type TogglePause struct{}

// Message is one published value.
type Message struct {
	Topic   Topic
	Payload any
}

type subscription struct {
	id      uint64
	handler func(Message)
}

// Bus delivers messages synchronously, in subscription order, on the
// publisher's goroutine. Handlers may publish or unsubscribe.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers handler for topic and returns a cancel func.
func (b *Bus) Subscribe(topic Topic, handler func(Message)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, id) })
	}
}

// Publish delivers payload to every current subscriber of topic.
func (b *Bus) Publish(topic Topic, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()

	msg := Message{Topic: topic, Payload: payload}
	for _, sub := range subs {
		sub.handler(msg)
	}
}

func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, sub := range subs {
		if sub.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// On subscribes a typed handler; messages whose payload is not a T are skipped.
func On[T any](b *Bus, topic Topic, handler func(T)) func() {
	return b.Subscribe(topic, func(msg Message) {
		if payload, ok := msg.Payload.(T); ok {
			handler(payload)
		}
	})
}

// PublishPauseState broadcasts the current pause flag.
func PublishPauseState(b *Bus, paused bool) {
	b.Publish(TopicPauseState, PauseState{IsPaused: paused})
}

// RequestTogglePause asks whoever owns the timer to flip its pause flag.
func RequestTogglePause(b *Bus) {
	b.Publish(TopicTogglePause, TogglePause{})
}
