package peer

import "time"

const DefAliveTimeout = 30 * time.Second

type State string

const (
	Connected    State = "connected"
	Disconnected State = "disconnected"
)

// Peer is a remote node known to this one. Records are never removed, a
// peer that leaves is kept as Disconnected.
type Peer struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Stale reports whether a connected peer has not been heard from within
// timeout of now.
func (p Peer) Stale(now time.Time, timeout time.Duration) bool {
	return p.State == Connected && now.Sub(p.LastSeen) > timeout
}

type Page struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
	Total  uint64 `json:"total"`
	Peers  []Peer `json:"peers"`
}
