package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/mqtt"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

const DefCollectWindow = 30 * time.Second

var errMalformedWeights = errors.New("malformed weights message")

type weightsMessage struct {
	PeerID  string `json:"peer_id"`
	Round   uint64 `json:"round"`
	Weights string `json:"weights"`
}

// Exchange publishes local snapshots and buffers the latest one received
// from each peer until a round collects it.
type Exchange struct {
	pubsub mqtt.PubSub
	topics Topics
	selfID string
	window time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]fl.Update
	arrived chan struct{}
}

func NewExchange(pubsub mqtt.PubSub, topics Topics, selfID string, window time.Duration, logger *slog.Logger) *Exchange {
	if window < 0 {
		window = 0
	}

	return &Exchange{
		pubsub:  pubsub,
		topics:  topics,
		selfID:  selfID,
		window:  window,
		logger:  logger,
		pending: make(map[string]fl.Update),
		arrived: make(chan struct{}),
	}
}

func (e *Exchange) Start(ctx context.Context) error {
	if err := e.pubsub.Subscribe(ctx, e.topics.AllWeights(), e.handle); err != nil {
		return fmt.Errorf("failed to subscribe to peer weights: %w", err)
	}

	return nil
}

func (e *Exchange) PublishWeights(ctx context.Context, roundNumber uint64, s tensor.Snapshot) error {
	blob, err := tensor.Encode(s)
	if err != nil {
		return err
	}

	msg := weightsMessage{
		PeerID:  e.selfID,
		Round:   roundNumber,
		Weights: base64.StdEncoding.EncodeToString(blob),
	}
	if err := e.pubsub.Publish(ctx, e.topics.Weights(e.selfID), msg); err != nil {
		return fmt.Errorf("failed to publish weights: %w", err)
	}
	WeightsPublished.Inc()

	return nil
}

// Collect hands over the snapshots buffered for the given participants,
// waiting up to the collection window for the missing ones. Handed over
// snapshots leave the buffer so a later round never reuses them.
func (e *Exchange) Collect(ctx context.Context, roundNumber uint64, participants []string) ([]fl.Update, error) {
	if len(participants) == 0 {
		return nil, nil
	}

	timer := time.NewTimer(e.window)
	defer timer.Stop()

	for {
		e.mu.Lock()
		missing := 0
		for _, id := range participants {
			if _, ok := e.pending[id]; !ok {
				missing++
			}
		}
		arrived := e.arrived
		if missing == 0 {
			updates := e.takeLocked(participants)
			e.mu.Unlock()

			return updates, nil
		}
		e.mu.Unlock()

		select {
		case <-arrived:
		case <-timer.C:
			e.mu.Lock()
			updates := e.takeLocked(participants)
			e.mu.Unlock()
			e.logger.Warn("collection window elapsed",
				slog.Uint64("round", roundNumber),
				slog.Int("received", len(updates)),
				slog.Int("expected", len(participants)),
			)

			return updates, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (e *Exchange) takeLocked(participants []string) []fl.Update {
	var updates []fl.Update
	for _, id := range participants {
		if u, ok := e.pending[id]; ok {
			updates = append(updates, u)
			delete(e.pending, id)
		}
	}

	return updates
}

// Pending lists the peers whose snapshot is waiting to be collected.
func (e *Exchange) Pending() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(e.pending))
	for id := range e.pending {
		ids = append(ids, id)
	}

	return ids
}

func (e *Exchange) handle(topic string, msg map[string]any) error {
	sender, ok := e.topics.PeerFromWeights(topic)
	if !ok || sender == e.selfID {
		return nil
	}

	u, err := decodeWeights(msg)
	if err != nil {
		WeightsReceived.WithLabelValues("rejected").Inc()

		return fmt.Errorf("weights from %s: %w", sender, err)
	}
	if u.PeerID != sender {
		WeightsReceived.WithLabelValues("rejected").Inc()

		return fmt.Errorf("%w: topic names %s but payload names %s", errMalformedWeights, sender, u.PeerID)
	}

	e.mu.Lock()
	e.pending[sender] = u
	close(e.arrived)
	e.arrived = make(chan struct{})
	e.mu.Unlock()
	WeightsReceived.WithLabelValues("accepted").Inc()

	return nil
}

func decodeWeights(msg map[string]any) (fl.Update, error) {
	id, _ := msg["peer_id"].(string)
	encoded, _ := msg["weights"].(string)
	if id == "" || encoded == "" {
		return fl.Update{}, errMalformedWeights
	}
	var roundNumber uint64
	if r, ok := msg["round"].(float64); ok && r > 0 {
		roundNumber = uint64(r)
	}

	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fl.Update{}, errors.Join(errMalformedWeights, err)
	}
	s, err := tensor.Decode(blob)
	if err != nil {
		return fl.Update{}, errors.Join(errMalformedWeights, err)
	}

	return fl.Update{PeerID: id, Round: roundNumber, Weights: s}, nil
}
