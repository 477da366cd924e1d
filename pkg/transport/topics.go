// Package transport carries peer-to-peer traffic over MQTT: presence
// heartbeats, weight snapshots after local training, and relayed
// coordinator events.
package transport

import (
	"path"
	"strings"
)

const (
	flSegment      = "fl"
	aliveSegment   = "peers/alive"
	weightsSegment = "weights"
	eventsSegment  = "events"

	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Topics lays out every topic under <base>/fl.
type Topics struct {
	root string
}

func NewTopics(base string) Topics {
	base = strings.Trim(base, "/")
	if base == "" {
		return Topics{root: flSegment}
	}

	return Topics{root: path.Join(base, flSegment)}
}

func (t Topics) Alive() string {
	return path.Join(t.root, aliveSegment)
}

func (t Topics) Weights(peerID string) string {
	return path.Join(t.root, weightsSegment, peerID)
}

func (t Topics) AllWeights() string {
	return path.Join(t.root, weightsSegment, "+")
}

func (t Topics) Events() string {
	return path.Join(t.root, eventsSegment)
}

// PeerFromWeights extracts the sender from a weights topic.
func (t Topics) PeerFromWeights(topic string) (string, bool) {
	prefix := path.Join(t.root, weightsSegment) + "/"
	id, ok := strings.CutPrefix(topic, prefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}

	return id, true
}
