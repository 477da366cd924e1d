package sdk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const CTJSON string = "application/json"

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type SDK interface {
	// StartRound starts a training round with the given participants.
	//
	// example:
	//  info, _ := sdk.StartRound([]string{"peer-a", "peer-b"})
	//  fmt.Println(info.RoundNumber)
	StartRound(participants []string) (RoundInfo, error)

	// GetRound gets a round by number.
	//
	// example:
	//  r, _ := sdk.GetRound(3)
	//  fmt.Println(r.Status)
	GetRound(number uint64) (Round, error)

	// ListRounds lists past and current rounds.
	//
	// example:
	//  page, _ := sdk.ListRounds(0, 10)
	//  fmt.Println(page.Total)
	ListRounds(offset uint64, limit uint64) (RoundPage, error)

	// Status reports the coordinator state.
	Status() (Status, error)

	// Aggregate merges snapshots into the node model outside of a round.
	//
	// example:
	//  info, _ := sdk.Aggregate(nil, true)
	//  fmt.Println(info.ParticipantCount)
	Aggregate(snapshots []Update, includeSelf bool) (AggregateInfo, error)

	// Weights returns the node weights, nil when no model exists.
	Weights() ([]Tensor, error)

	SetWeights(weights []Tensor) error

	// InitializeModel builds a fresh model from cfg.
	//
	// example:
	//  cfg := sdk.ModelConfig{InputShape: []int{4}, NumClasses: 3, LearningRate: 0.01, BatchSize: 16, Epochs: 10}
	//  m, _ := sdk.InitializeModel(cfg)
	//  fmt.Println(m.TaskKind)
	InitializeModel(cfg ModelConfig) (Model, error)

	// SetConfig patches the model config. The result says whether the
	// patch waits for the running round to end.
	SetConfig(patch ConfigPatch) (ConfigInfo, error)

	// UploadData replaces the local training data and returns the sample
	// count.
	UploadData(data TrainingData) (int, error)

	RestoreCheckpoint(tag string) error

	ListPeers() (PeerPage, error)

	// Activity lists the most recent node activity, newest first.
	Activity(limit uint64) ([]Activity, error)

	// WatchEvents streams coordinator events of the given kinds, all kinds
	// when empty, until ctx is done or fn returns an error.
	//
	// example:
	//  err := sdk.WatchEvents(ctx, []string{"round_completed"}, func(e sdk.Event) error {
	//  	fmt.Println(e.Round)
	//  	return sdk.ErrStopWatching
	//  })
	WatchEvents(ctx context.Context, kinds []string, fn func(Event) error) error
}

type propSDK struct {
	nodeURL string
	client  *http.Client
}

type Config struct {
	NodeURL         string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &propSDK{
		nodeURL: strings.TrimSuffix(cfg.NodeURL, "/"),
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

// Error is returned when the node answers with an unexpected status.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected response code: %d", e.StatusCode)
	}

	return fmt.Sprintf("unexpected response code: %d: %s", e.StatusCode, e.Message)
}

func (sdk *propSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		var e struct {
			Err string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)

		return []byte{}, &Error{StatusCode: resp.StatusCode, Message: e.Err}
	}

	return body, nil
}

func (sdk *propSDK) do(method, path string, in any, expectedRespCode int, out any) error {
	var data []byte
	if in != nil {
		var err error
		if data, err = json.Marshal(in); err != nil {
			return err
		}
	}

	body, err := sdk.processRequest(method, sdk.nodeURL+path, data, expectedRespCode)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	return json.Unmarshal(body, out)
}
