package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout       = 10 * time.Second
	maxReconnectInterval = time.Minute
	disconnectQuiesce    = 250
)

var (
	errConnectTimeout     = errors.New("timed out connecting to MQTT broker")
	errPublishTimeout     = errors.New("timed out publishing message")
	errSubscribeTimeout   = errors.New("timed out subscribing to topic")
	errUnsubscribeTimeout = errors.New("timed out unsubscribing from topic")
	errEmptyTopic         = errors.New("empty topic")
	errEmptyID            = errors.New("empty client ID")
)

type Config struct {
	URL       string        `env:"URL"        envDefault:"tcp://localhost:1883"`
	QoS       byte          `env:"QOS"        envDefault:"1"`
	Timeout   time.Duration `env:"TIMEOUT"    envDefault:"30s"`
	Username  string        `env:"USERNAME"   envDefault:""`
	Password  string        `env:"PASSWORD"   envDefault:""`
	BaseTopic string        `env:"BASE_TOPIC" envDefault:"fedpeer"`
}

// Will is the message the broker publishes on behalf of a client that
// vanishes without disconnecting.
type Will struct {
	Topic   string
	Payload any
}

// Handler receives a decoded JSON object published on topic.
type Handler func(topic string, msg map[string]any) error

type PubSub interface {
	Publish(ctx context.Context, topic string, msg any) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Unsubscribe(ctx context.Context, topic string) error
	Disconnect(ctx context.Context) error
}

type pubsub struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
	logger  *slog.Logger

	mu   sync.Mutex
	subs map[string]mqtt.MessageHandler
}

// NewPubSub connects to the broker. Sessions are clean, so active
// subscriptions are replayed every time the connection comes back.
func NewPubSub(cfg Config, id string, will *Will, logger *slog.Logger) (PubSub, error) {
	if id == "" {
		return nil, errEmptyID
	}

	ps := &pubsub{
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
		logger:  logger,
		subs:    make(map[string]mqtt.MessageHandler),
	}

	opts, err := ps.options(cfg, id, will)
	if err != nil {
		return nil, err
	}

	ps.client = mqtt.NewClient(opts)
	if err := ps.await(ps.client.Connect(), errConnectTimeout); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return ps, nil
}

func (ps *pubsub) Publish(_ context.Context, topic string, msg any) error {
	if topic == "" {
		return errEmptyTopic
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return ps.await(ps.client.Publish(topic, ps.qos, false, data), errPublishTimeout)
}

func (ps *pubsub) Subscribe(_ context.Context, topic string, handler Handler) error {
	if topic == "" {
		return errEmptyTopic
	}

	h := ps.dispatch(handler)
	if err := ps.await(ps.client.Subscribe(topic, ps.qos, h), errSubscribeTimeout); err != nil {
		return err
	}

	ps.mu.Lock()
	ps.subs[topic] = h
	ps.mu.Unlock()

	return nil
}

func (ps *pubsub) Unsubscribe(_ context.Context, topic string) error {
	if topic == "" {
		return errEmptyTopic
	}

	ps.mu.Lock()
	delete(ps.subs, topic)
	ps.mu.Unlock()

	return ps.await(ps.client.Unsubscribe(topic), errUnsubscribeTimeout)
}

func (ps *pubsub) Disconnect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ps.client.Disconnect(disconnectQuiesce)

	return nil
}

// await blocks on t for at most the configured timeout.
func (ps *pubsub) await(t mqtt.Token, timeout error) error {
	if !t.WaitTimeout(ps.timeout) {
		return timeout
	}

	return t.Error()
}

func (ps *pubsub) options(cfg Config, id string, will *Will) (*mqtt.ClientOptions, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(id).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetMaxReconnectInterval(maxReconnectInterval)

	if will != nil {
		if will.Topic == "" {
			return nil, errEmptyTopic
		}
		payload, err := json.Marshal(will.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode last will: %w", err)
		}
		opts.SetBinaryWill(will.Topic, payload, cfg.QoS, false)
	}

	opts.SetOnConnectHandler(ps.resubscribe)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		ps.logger.Warn("MQTT connection lost", slog.Any("error", err))
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, o *mqtt.ClientOptions) {
		ps.logger.Info("MQTT reconnecting", slog.String("client_id", o.ClientID))
	})

	return opts, nil
}

func (ps *pubsub) resubscribe(c mqtt.Client) {
	ps.mu.Lock()
	subs := make(map[string]mqtt.MessageHandler, len(ps.subs))
	for topic, h := range ps.subs {
		subs[topic] = h
	}
	ps.mu.Unlock()

	ps.logger.Info("MQTT connection established", slog.Int("subscriptions", len(subs)))

	// Runs on the paho connection goroutine; waiting on the tokens here
	// would deadlock, so failures are only logged.
	for topic, h := range subs {
		t := c.Subscribe(topic, ps.qos, h)
		go func() {
			if err := ps.await(t, errSubscribeTimeout); err != nil {
				ps.logger.Warn("Failed to restore subscription", slog.String("topic", topic), slog.Any("error", err))
			}
		}()
	}
}

func (ps *pubsub) dispatch(h Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, m mqtt.Message) {
		defer m.Ack()

		var msg map[string]any
		if err := json.Unmarshal(m.Payload(), &msg); err != nil {
			ps.logger.Warn("Dropping malformed message", slog.String("topic", m.Topic()), slog.Any("error", err))

			return
		}

		if err := h(m.Topic(), msg); err != nil {
			ps.logger.Warn("Failed to handle MQTT message", slog.String("topic", m.Topic()), slog.Any("error", err))
		}
	}
}

// Match reports whether topic is selected by an MQTT topic filter, with +
// matching one level and a trailing # matching the rest.
func Match(filter, topic string) bool {
	fs := strings.Split(filter, "/")
	ts := strings.Split(topic, "/")
	for i, f := range fs {
		if f == "#" {
			return i == len(fs)-1
		}
		if i >= len(ts) {
			return false
		}
		if f != "+" && f != ts[i] {
			return false
		}
	}

	return len(fs) == len(ts)
}
