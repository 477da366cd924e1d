package mqtt

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		desc   string
		filter string
		topic  string
		match  bool
	}{
		{desc: "exact", filter: "fedpeer/fl/events", topic: "fedpeer/fl/events", match: true},
		{desc: "different leaf", filter: "fedpeer/fl/events", topic: "fedpeer/fl/peers", match: false},
		{desc: "single level wildcard", filter: "fedpeer/fl/weights/+", topic: "fedpeer/fl/weights/peer-a", match: true},
		{desc: "single level does not span", filter: "fedpeer/fl/weights/+", topic: "fedpeer/fl/weights/peer-a/extra", match: false},
		{desc: "multi level wildcard", filter: "fedpeer/#", topic: "fedpeer/fl/weights/peer-a", match: true},
		{desc: "multi level matches parent", filter: "fedpeer/fl/#", topic: "fedpeer/fl", match: true},
		{desc: "hash not last", filter: "fedpeer/#/x", topic: "fedpeer/a/x", match: false},
		{desc: "shorter topic", filter: "fedpeer/fl/events", topic: "fedpeer/fl", match: false},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.match, Match(tc.filter, tc.topic))
		})
	}
}

func TestClientOptions(t *testing.T) {
	ps := &pubsub{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	cfg := Config{URL: "tcp://broker:1883", QoS: 1, Timeout: time.Second, Username: "node", Password: "secret"}

	cases := []struct {
		desc    string
		will    *Will
		willSet bool
		err     error
	}{
		{desc: "without will"},
		{desc: "with will", will: &Will{Topic: "fedpeer/fl/peers/alive", Payload: map[string]string{"peer_id": "node-1", "status": "offline"}}, willSet: true},
		{desc: "will without topic", will: &Will{Payload: "x"}, err: errEmptyTopic},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			opts, err := ps.options(cfg, "node-1", tc.will)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, "node-1", opts.ClientID)
			assert.Equal(t, "node", opts.Username)
			assert.Equal(t, tc.willSet, opts.WillEnabled)
			if tc.willSet {
				assert.Equal(t, tc.will.Topic, opts.WillTopic)
				assert.JSONEq(t, `{"peer_id":"node-1","status":"offline"}`, string(opts.WillPayload))
			}
		})
	}
}

func TestNewPubSubRequiresID(t *testing.T) {
	_, err := NewPubSub(Config{}, "", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, errEmptyID)
}

type token struct {
	done bool
	err  error
}

func (t token) Wait() bool                     { return t.done }
func (t token) WaitTimeout(time.Duration) bool { return t.done }
func (t token) Done() <-chan struct{}          { return nil }
func (t token) Error() error                   { return t.err }

func TestAwait(t *testing.T) {
	errBroker := errors.New("not authorized")
	ps := &pubsub{timeout: time.Millisecond}

	cases := []struct {
		desc  string
		token token
		err   error
	}{
		{desc: "completed", token: token{done: true}},
		{desc: "completed with error", token: token{done: true, err: errBroker}, err: errBroker},
		{desc: "timed out", token: token{}, err: errPublishTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.ErrorIs(t, ps.await(tc.token, errPublishTimeout), tc.err)
		})
	}
}

type message struct {
	topic   string
	payload []byte
	acked   bool
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 1 }
func (m *message) Retained() bool    { return false }
func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return 1 }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              { m.acked = true }

func TestDispatch(t *testing.T) {
	ps := &pubsub{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	cases := []struct {
		desc    string
		payload string
		handled bool
	}{
		{desc: "json object", payload: `{"peer_id":"node-2","status":"online"}`, handled: true},
		{desc: "malformed payload", payload: `{"peer_id":`},
		{desc: "not an object", payload: `[1,2]`},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			var got map[string]any
			h := ps.dispatch(func(topic string, msg map[string]any) error {
				assert.Equal(t, "fedpeer/fl/peers/alive", topic)
				got = msg

				return errors.New("ignored")
			})
			m := &message{topic: "fedpeer/fl/peers/alive", payload: []byte(tc.payload)}
			h(nil, m)

			assert.True(t, m.acked)
			assert.Equal(t, tc.handled, got != nil)
			if tc.handled {
				assert.Equal(t, "node-2", got["peer_id"])
			}
		})
	}
}

var _ mqtt.Message = (*message)(nil)
