package fl

import (
	"fmt"

	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

// SelfID labels the local model when it takes part in an aggregation.
const SelfID = "self"

// Update is one candidate weight set offered for aggregation.
type Update struct {
	PeerID  string          `json:"peer_id"`
	Round   uint64          `json:"round,omitempty"`
	Weights tensor.Snapshot `json:"weights"`
}

// ShapeMismatch records a candidate layer skipped because its shape differs
// from the local layer. It never aborts an aggregation.
type ShapeMismatch struct {
	PeerID string `json:"peer_id"`
	Layer  int    `json:"layer"`
	Got    []int  `json:"got"`
	Want   []int  `json:"want"`
}

func (w ShapeMismatch) String() string {
	return fmt.Sprintf("peer %s layer %d: shape %v, want %v", w.PeerID, w.Layer, w.Got, w.Want)
}

type Result struct {
	Weights tensor.Snapshot `json:"weights"`
	// Candidates counts every snapshot considered, the local one included.
	Candidates int `json:"candidates"`
	// Contributors holds, per layer, how many candidates were averaged.
	Contributors []int           `json:"contributors"`
	Warnings     []ShapeMismatch `json:"warnings,omitempty"`
}

type Aggregator interface {
	Aggregate(local tensor.Snapshot, updates []Update, includeSelf bool) (Result, error)
}
