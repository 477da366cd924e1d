package testutil

import (
	"fmt"
	"time"

	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
)

func TestRound(number uint64) round.Round {
	now := time.Now().UTC().Truncate(time.Millisecond)

	return round.Round{
		Number:       number,
		Status:       round.Training,
		Participants: []string{"self", "peer-a", "peer-b"},
		StartTime:    now,
		UpdatedAt:    now,
	}
}

func CompletedRound(number uint64) round.Round {
	r := TestRound(number)
	acc, loss := 0.75, 0.42
	r.Status = round.Completed
	r.EndTime = r.StartTime.Add(2 * time.Second)
	r.Accuracy = &acc
	r.Loss = &loss
	r.Snapshot = []byte{0x01, 0x02, 0x03}
	r.Checkpoint = fmt.Sprintf("round-%d", number)

	return r
}

func TestPeer(id string) peer.Peer {
	now := time.Now().UTC().Truncate(time.Millisecond)

	return peer.Peer{
		ID:        id,
		State:     peer.Connected,
		FirstSeen: now.Add(-10 * time.Second),
		LastSeen:  now,
	}
}
