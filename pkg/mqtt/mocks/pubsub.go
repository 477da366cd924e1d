package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/yahyaAbdulSattar/major-project/pkg/mqtt"
)

var _ mqtt.PubSub = (*PubSub)(nil)

var ErrDisconnected = errors.New("pubsub is disconnected")

type Message struct {
	Topic   string
	Payload map[string]any
}

// PubSub is an in-process broker. Messages round trip through JSON exactly
// like on the wire and are delivered synchronously to every matching
// subscription.
type PubSub struct {
	mu           sync.Mutex
	subs         map[string]mqtt.Handler
	published    []Message
	disconnected bool
	// PublishErr, when set, fails every publish.
	PublishErr error
}

func NewPubSub() *PubSub {
	return &PubSub{subs: make(map[string]mqtt.Handler)}
}

func (ps *PubSub) Publish(_ context.Context, topic string, msg any) error {
	ps.mu.Lock()
	if ps.disconnected {
		ps.mu.Unlock()

		return ErrDisconnected
	}
	if ps.PublishErr != nil {
		ps.mu.Unlock()

		return ps.PublishErr
	}
	data, err := json.Marshal(msg)
	if err != nil {
		ps.mu.Unlock()

		return err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		ps.mu.Unlock()

		return err
	}
	ps.published = append(ps.published, Message{Topic: topic, Payload: payload})
	var handlers []mqtt.Handler
	for filter, h := range ps.subs {
		if mqtt.Match(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	ps.mu.Unlock()

	for _, h := range handlers {
		_ = h(topic, payload)
	}

	return nil
}

// Deliver injects a message as if a remote client had published it.
func (ps *PubSub) Deliver(topic string, payload map[string]any) {
	ps.mu.Lock()
	var handlers []mqtt.Handler
	for filter, h := range ps.subs {
		if mqtt.Match(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	ps.mu.Unlock()

	for _, h := range handlers {
		_ = h(topic, payload)
	}
}

func (ps *PubSub) Subscribe(_ context.Context, topic string, handler mqtt.Handler) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.subs[topic] = handler

	return nil
}

func (ps *PubSub) Unsubscribe(_ context.Context, topic string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.subs, topic)

	return nil
}

func (ps *PubSub) Disconnect(context.Context) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.disconnected = true

	return nil
}

// Published returns the messages sent to topics matched by filter.
func (ps *PubSub) Published(filter string) []Message {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	var out []Message
	for _, m := range ps.published {
		if mqtt.Match(filter, m.Topic) {
			out = append(out, m)
		}
	}

	return out
}

func (ps *PubSub) Subscriptions() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	out := make([]string, 0, len(ps.subs))
	for t := range ps.subs {
		out = append(out, t)
	}

	return out
}
