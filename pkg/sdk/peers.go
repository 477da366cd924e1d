package sdk

import (
	"fmt"
	"net/http"
	"time"
)

type Peer struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

type PeerPage struct {
	Total uint64 `json:"total"`
	Peers []Peer `json:"peers"`
}

type Activity struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	PeerID    string         `json:"peer_id,omitempty"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (sdk *propSDK) ListPeers() (PeerPage, error) {
	var page PeerPage
	if err := sdk.do(http.MethodGet, "/peers", nil, http.StatusOK, &page); err != nil {
		return PeerPage{}, err
	}

	return page, nil
}

func (sdk *propSDK) Activity(limit uint64) ([]Activity, error) {
	path := "/activity"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var res struct {
		Activities []Activity `json:"activities"`
	}
	if err := sdk.do(http.MethodGet, path, nil, http.StatusOK, &res); err != nil {
		return nil, err
	}

	return res.Activities, nil
}
