package sdk

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const roundsEndpoint = "/rounds"

type RoundInfo struct {
	RoundNumber  uint64   `json:"round_number"`
	Participants []string `json:"participants"`
}

type Round struct {
	RoundNumber  uint64    `json:"round_number"`
	Status       string    `json:"status"`
	Participants []string  `json:"participants"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time,omitzero"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	Loss         *float64  `json:"loss,omitempty"`
	MAE          *float64  `json:"mae,omitempty"`
	Error        string    `json:"error,omitempty"`
	Checkpoint   string    `json:"checkpoint,omitempty"`
}

type RoundPage struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Rounds []Round `json:"rounds"`
}

type Status struct {
	State            string   `json:"state"`
	IsActive         bool     `json:"is_active"`
	CurrentRound     uint64   `json:"current_round"`
	Participants     []string `json:"participants"`
	LastError        string   `json:"last_error,omitempty"`
	ModelInitialized bool     `json:"model_initialized"`
	TaskKind         string   `json:"task_kind,omitempty"`
	TrainingSamples  int      `json:"training_samples"`
	ConfigQueued     bool     `json:"config_queued"`
}

type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

type Update struct {
	PeerID  string   `json:"peer_id"`
	Weights []Tensor `json:"weights"`
}

type ShapeMismatch struct {
	PeerID string `json:"peer_id"`
	Layer  int    `json:"layer"`
	Got    []int  `json:"got"`
	Want   []int  `json:"want"`
}

type AggregateInfo struct {
	ParticipantCount int             `json:"participant_count"`
	CurrentRound     uint64          `json:"current_round"`
	Warnings         []ShapeMismatch `json:"warnings,omitempty"`
}

func (sdk *propSDK) StartRound(participants []string) (RoundInfo, error) {
	req := struct {
		Participants []string `json:"participants"`
	}{Participants: participants}

	var info RoundInfo
	if err := sdk.do(http.MethodPost, roundsEndpoint, req, http.StatusCreated, &info); err != nil {
		return RoundInfo{}, err
	}

	return info, nil
}

func (sdk *propSDK) GetRound(number uint64) (Round, error) {
	var r Round
	if err := sdk.do(http.MethodGet, fmt.Sprintf("%s/%d", roundsEndpoint, number), nil, http.StatusOK, &r); err != nil {
		return Round{}, err
	}

	return r, nil
}

func (sdk *propSDK) ListRounds(offset, limit uint64) (RoundPage, error) {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	query := ""
	if len(queries) > 0 {
		query = "?" + strings.Join(queries, "&")
	}

	var page RoundPage
	if err := sdk.do(http.MethodGet, roundsEndpoint+query, nil, http.StatusOK, &page); err != nil {
		return RoundPage{}, err
	}

	return page, nil
}

func (sdk *propSDK) Status() (Status, error) {
	var st Status
	if err := sdk.do(http.MethodGet, "/status", nil, http.StatusOK, &st); err != nil {
		return Status{}, err
	}

	return st, nil
}

func (sdk *propSDK) Aggregate(snapshots []Update, includeSelf bool) (AggregateInfo, error) {
	if snapshots == nil {
		snapshots = []Update{}
	}
	req := struct {
		Snapshots   []Update `json:"snapshots"`
		IncludeSelf bool     `json:"include_self"`
	}{Snapshots: snapshots, IncludeSelf: includeSelf}

	var info AggregateInfo
	if err := sdk.do(http.MethodPost, "/aggregate", req, http.StatusOK, &info); err != nil {
		return AggregateInfo{}, err
	}

	return info, nil
}
