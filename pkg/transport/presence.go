package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yahyaAbdulSattar/major-project/pkg/mqtt"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
)

const DefHeartbeatInterval = 10 * time.Second

type aliveMessage struct {
	PeerID string `json:"peer_id"`
	Status string `json:"status"`
}

// OfflineWill is the last will a node registers so that peers learn it is
// gone when its connection drops.
func OfflineWill(topics Topics, selfID string) *mqtt.Will {
	return &mqtt.Will{
		Topic:   topics.Alive(),
		Payload: aliveMessage{PeerID: selfID, Status: StatusOffline},
	}
}

// Presence announces this node and keeps the peer directory in sync with
// the heartbeats of others.
type Presence struct {
	pubsub    mqtt.PubSub
	topics    Topics
	selfID    string
	directory *peers.Directory
	interval  time.Duration
	logger    *slog.Logger
}

func NewPresence(pubsub mqtt.PubSub, topics Topics, selfID string, directory *peers.Directory, interval time.Duration, logger *slog.Logger) *Presence {
	if interval <= 0 {
		interval = DefHeartbeatInterval
	}

	return &Presence{
		pubsub:    pubsub,
		topics:    topics,
		selfID:    selfID,
		directory: directory,
		interval:  interval,
		logger:    logger,
	}
}

// Run subscribes to heartbeats and publishes its own until ctx is done, then
// announces itself offline.
func (p *Presence) Run(ctx context.Context) error {
	if err := p.pubsub.Subscribe(ctx, p.topics.Alive(), p.handle); err != nil {
		return fmt.Errorf("failed to subscribe to presence: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.beat(ctx)
	for {
		select {
		case <-ctx.Done():
			bye := context.WithoutCancel(ctx)
			if err := p.pubsub.Publish(bye, p.topics.Alive(), aliveMessage{PeerID: p.selfID, Status: StatusOffline}); err != nil {
				p.logger.Warn("failed to announce offline", slog.Any("error", err))
			}

			return nil
		case now := <-ticker.C:
			p.beat(ctx)
			p.Sweep(ctx, now)
		}
	}
}

func (p *Presence) beat(ctx context.Context) {
	if err := p.pubsub.Publish(ctx, p.topics.Alive(), aliveMessage{PeerID: p.selfID, Status: StatusOnline}); err != nil {
		p.logger.Warn("failed to publish heartbeat", slog.Any("error", err))
	}
}

// Sweep disconnects peers whose heartbeat is overdue at now.
func (p *Presence) Sweep(ctx context.Context, now time.Time) {
	stale, err := p.directory.Sweep(ctx, now)
	if err != nil {
		p.logger.Warn("failed to sweep stale peers", slog.Any("error", err))

		return
	}
	for _, id := range stale {
		p.logger.Info("peer timed out", slog.String("peer_id", id))
	}
	p.refreshGauge(ctx)
}

func (p *Presence) handle(_ string, msg map[string]any) error {
	id, _ := msg["peer_id"].(string)
	status, _ := msg["status"].(string)
	if id == "" {
		return fmt.Errorf("heartbeat without peer id")
	}
	if id == p.selfID {
		return nil
	}

	ctx := context.Background()
	switch status {
	case StatusOnline:
		joined, err := p.directory.Connect(ctx, id)
		if err != nil {
			return err
		}
		if joined {
			p.logger.Info("peer connected", slog.String("peer_id", id))
		}
	case StatusOffline:
		left, err := p.directory.Disconnect(ctx, id)
		if err != nil {
			return err
		}
		if left {
			p.logger.Info("peer disconnected", slog.String("peer_id", id))
		}
	default:
		return fmt.Errorf("unknown presence status %q from %s", status, id)
	}
	p.refreshGauge(ctx)

	return nil
}

func (p *Presence) refreshGauge(ctx context.Context) {
	ids, err := p.directory.ConnectedPeers(ctx)
	if err != nil {
		return
	}
	ConnectedPeers.Set(float64(len(ids)))
}
