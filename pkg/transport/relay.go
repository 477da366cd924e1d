package transport

import (
	"context"
	"log/slog"

	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/mqtt"
)

type relayedEvent struct {
	PeerID string `json:"peer_id"`
	events.Event
}

// Relay republishes coordinator events on the shared events topic.
type Relay struct {
	pubsub mqtt.PubSub
	topics Topics
	selfID string
	logger *slog.Logger
}

func NewRelay(pubsub mqtt.PubSub, topics Topics, selfID string, logger *slog.Logger) *Relay {
	return &Relay{
		pubsub: pubsub,
		topics: topics,
		selfID: selfID,
		logger: logger,
	}
}

// Run forwards events until ctx is done or the subscription closes.
func (r *Relay) Run(ctx context.Context, sub <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-sub:
			if !ok {
				return nil
			}
			if err := r.pubsub.Publish(ctx, r.topics.Events(), relayedEvent{PeerID: r.selfID, Event: e}); err != nil {
				r.logger.Warn("failed to relay event", slog.String("kind", string(e.Kind)), slog.Any("error", err))

				continue
			}
			EventsRelayed.Inc()
		}
	}
}
