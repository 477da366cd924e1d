// Package scheduler picks which peers take part in a scheduled round.
package scheduler

import (
	"errors"

	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
)

var (
	ErrNoPeers        = errors.New("no peer was provided")
	ErrNoLivePeers    = errors.New("no connected peer")
	ErrInvalidMaximum = errors.New("participant maximum must not be negative")
)

type Scheduler interface {
	// SelectParticipants returns up to max connected peers, all of them
	// when max is zero.
	SelectParticipants(peers []peer.Peer, max int) ([]string, error)
}

func connected(peers []peer.Peer) []string {
	ids := make([]string, 0, len(peers))
	for _, p := range peers {
		if p.State == peer.Connected {
			ids = append(ids, p.ID)
		}
	}

	return ids
}
