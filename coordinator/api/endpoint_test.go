package api_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/coordinator/api"
	"github.com/yahyaAbdulSattar/major-project/coordinator/mocks"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

const contentType = "application/json"

type testRequest struct {
	client      *http.Client
	method      string
	url         string
	contentType string
	body        io.Reader
}

func (tr testRequest) make() (*http.Response, error) {
	req, err := http.NewRequest(tr.method, tr.url, tr.body)
	if err != nil {
		return nil, err
	}
	if tr.contentType != "" {
		req.Header.Set("Content-Type", tr.contentType)
	}

	return tr.client.Do(req)
}

func newServer(t *testing.T) (*httptest.Server, *mocks.Service) {
	t.Helper()

	svc := new(mocks.Service)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(api.MakeHandler(svc, logger, "test"))
	t.Cleanup(ts.Close)

	return ts, svc
}

func decodeError(t *testing.T, res *http.Response) string {
	t.Helper()

	var body struct {
		Err string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))

	return body.Err
}

func TestStartRound(t *testing.T) {
	ts, svc := newServer(t)

	cases := []struct {
		desc        string
		body        string
		contentType string
		info        coordinator.RoundInfo
		svcErr      error
		status      int
		callsSvc    bool
	}{
		{
			desc:        "start round",
			body:        `{"participants":["peer-a","peer-b"]}`,
			contentType: contentType,
			info:        coordinator.RoundInfo{RoundNumber: 4, Participants: []string{"peer-a", "peer-b"}},
			status:      http.StatusCreated,
			callsSvc:    true,
		},
		{
			desc:        "round already active",
			body:        `{"participants":["peer-a"]}`,
			contentType: contentType,
			svcErr:      pkgerrors.ErrAlreadyTraining,
			status:      http.StatusConflict,
			callsSvc:    true,
		},
		{
			desc:        "model missing",
			body:        `{"participants":["peer-a"]}`,
			contentType: contentType,
			svcErr:      pkgerrors.ErrModelNotInitialized,
			status:      http.StatusPreconditionFailed,
			callsSvc:    true,
		},
		{
			desc:        "no participants",
			body:        `{"participants":[]}`,
			contentType: contentType,
			svcErr:      pkgerrors.ErrNoParticipants,
			status:      http.StatusBadRequest,
			callsSvc:    true,
		},
		{
			desc:        "invalid content type",
			body:        `{"participants":["peer-a"]}`,
			contentType: "text/plain",
			status:      http.StatusUnsupportedMediaType,
		},
		{
			desc:        "malformed body",
			body:        `{"participants":`,
			contentType: contentType,
			status:      http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			var call *mock.Call
			if tc.callsSvc {
				var req struct {
					Participants []string `json:"participants"`
				}
				require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
				call = svc.On("StartRound", mock.Anything, req.Participants).Return(tc.info, tc.svcErr).Once()
			}

			res, err := testRequest{
				client:      ts.Client(),
				method:      http.MethodPost,
				url:         ts.URL + "/rounds",
				contentType: tc.contentType,
				body:        strings.NewReader(tc.body),
			}.make()
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode, fmt.Sprintf("%s: expected status %d got %d", tc.desc, tc.status, res.StatusCode))
			if tc.status == http.StatusCreated {
				assert.Equal(t, "/rounds/4", res.Header.Get("Location"))
				var got coordinator.RoundInfo
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
				assert.Equal(t, tc.info, got)
			} else {
				assert.NotEmpty(t, decodeError(t, res))
			}
			if call != nil {
				svc.AssertExpectations(t)
				call.Unset()
			}
		})
	}
}

func TestListRounds(t *testing.T) {
	ts, svc := newServer(t)
	acc := 0.8
	page := round.Page{Offset: 0, Limit: 10, Total: 1, Rounds: []round.Round{{Number: 1, Status: round.Completed, Accuracy: &acc}}}

	cases := []struct {
		desc     string
		query    string
		offset   uint64
		limit    uint64
		status   int
		callsSvc bool
	}{
		{desc: "defaults", query: "", offset: 0, limit: 10, status: http.StatusOK, callsSvc: true},
		{desc: "explicit page", query: "?offset=5&limit=20", offset: 5, limit: 20, status: http.StatusOK, callsSvc: true},
		{desc: "limit too large", query: "?limit=1000", status: http.StatusBadRequest},
		{desc: "invalid offset", query: "?offset=abc", status: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			var call *mock.Call
			if tc.callsSvc {
				call = svc.On("ListRounds", mock.Anything, tc.offset, tc.limit).Return(page, nil).Once()
			}

			res, err := testRequest{client: ts.Client(), method: http.MethodGet, url: ts.URL + "/rounds" + tc.query}.make()
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			if tc.callsSvc {
				var got round.Page
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
				assert.Equal(t, page.Total, got.Total)
				require.Len(t, got.Rounds, 1)
				assert.Equal(t, round.Completed, got.Rounds[0].Status)
				svc.AssertExpectations(t)
				call.Unset()
			}
		})
	}
}

func TestGetRound(t *testing.T) {
	ts, svc := newServer(t)

	cases := []struct {
		desc     string
		number   string
		svcErr   error
		status   int
		callsSvc bool
	}{
		{desc: "existing round", number: "2", status: http.StatusOK, callsSvc: true},
		{desc: "unknown round", number: "9", svcErr: fmt.Errorf("round %w", pkgerrors.ErrNotFound), status: http.StatusNotFound, callsSvc: true},
		{desc: "zero round", number: "0", status: http.StatusBadRequest},
		{desc: "not a number", number: "two", status: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			var call *mock.Call
			if tc.callsSvc {
				var n uint64
				_, err := fmt.Sscan(tc.number, &n)
				require.NoError(t, err)
				call = svc.On("GetRound", mock.Anything, n).Return(round.Round{Number: n, Status: round.Training}, tc.svcErr).Once()
			}

			res, err := testRequest{client: ts.Client(), method: http.MethodGet, url: ts.URL + "/rounds/" + tc.number}.make()
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			if call != nil {
				svc.AssertExpectations(t)
				call.Unset()
			}
		})
	}
}

func TestStatus(t *testing.T) {
	ts, svc := newServer(t)
	svc.On("Status", mock.Anything).Return(coordinator.Status{
		State:        coordinator.Training,
		IsActive:     true,
		CurrentRound: 3,
		Participants: []string{"peer-a"},
	}, nil).Once()

	res, err := testRequest{client: ts.Client(), method: http.MethodGet, url: ts.URL + "/status"}.make()
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, true, body["is_active"])
	assert.Equal(t, float64(3), body["current_round"])
	assert.Equal(t, "training", body["state"])
	assert.Equal(t, []any{"peer-a"}, body["participants"])
}

func TestAggregate(t *testing.T) {
	ts, svc := newServer(t)

	cases := []struct {
		desc     string
		body     string
		self     bool
		info     coordinator.AggregateInfo
		svcErr   error
		status   int
		callsSvc bool
	}{
		{
			desc:     "aggregate with self",
			body:     `{"snapshots":[{"peer_id":"peer-a","weights":[{"shape":[2],"data":[1,2]}]}],"include_self":true}`,
			self:     true,
			info:     coordinator.AggregateInfo{ParticipantCount: 2, CurrentRound: 1},
			status:   http.StatusOK,
			callsSvc: true,
		},
		{
			desc:     "nothing to aggregate",
			body:     `{"snapshots":[],"include_self":false}`,
			svcErr:   pkgerrors.ErrAggregationEmptyInput,
			status:   http.StatusBadRequest,
			callsSvc: true,
		},
		{
			desc:     "during a round",
			body:     `{"snapshots":[],"include_self":true}`,
			self:     true,
			svcErr:   pkgerrors.ErrAlreadyTraining,
			status:   http.StatusConflict,
			callsSvc: true,
		},
		{
			desc:   "snapshot without peer",
			body:   `{"snapshots":[{"weights":[]}]}`,
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			var call *mock.Call
			if tc.callsSvc {
				call = svc.On("Aggregate", mock.Anything, mock.Anything, tc.self).Return(tc.info, tc.svcErr).Once()
			}

			res, err := testRequest{
				client:      ts.Client(),
				method:      http.MethodPost,
				url:         ts.URL + "/aggregate",
				contentType: contentType,
				body:        strings.NewReader(tc.body),
			}.make()
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			if tc.status == http.StatusOK {
				var got coordinator.AggregateInfo
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
				assert.Equal(t, tc.info, got)
			}
			if call != nil {
				svc.AssertExpectations(t)
				call.Unset()
			}
		})
	}
}

func TestWeights(t *testing.T) {
	ts, svc := newServer(t)
	snapshot := tensor.Snapshot{{Shape: []int{2}, Data: []float64{0.5, -0.5}}}

	cases := []struct {
		desc     string
		weights  tensor.Snapshot
		svcErr   error
		status   int
		expected string
	}{
		{desc: "initialized model", weights: snapshot, status: http.StatusOK, expected: `[{"shape":[2],"data":[0.5,-0.5]}]`},
		{desc: "no model yet", svcErr: pkgerrors.ErrModelNotInitialized, status: http.StatusOK, expected: "null"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			call := svc.On("Weights", mock.Anything).Return(tc.weights, tc.svcErr).Once()

			res, err := testRequest{client: ts.Client(), method: http.MethodGet, url: ts.URL + "/weights"}.make()
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			assert.JSONEq(t, tc.expected, string(body))
			call.Unset()
		})
	}
}

func TestUpdateWeights(t *testing.T) {
	ts, svc := newServer(t)

	cases := []struct {
		desc     string
		body     string
		svcErr   error
		status   int
		callsSvc bool
	}{
		{desc: "install weights", body: `{"weights":[{"shape":[2],"data":[1,2]}]}`, status: http.StatusOK, callsSvc: true},
		{desc: "during a round", body: `{"weights":[{"shape":[2],"data":[1,2]}]}`, svcErr: pkgerrors.ErrAlreadyTraining, status: http.StatusConflict, callsSvc: true},
		{desc: "empty weights", body: `{"weights":[]}`, status: http.StatusBadRequest},
		{desc: "shape disagrees with data", body: `{"weights":[{"shape":[3],"data":[1,2]}]}`, status: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			var call *mock.Call
			if tc.callsSvc {
				want := tensor.Snapshot{{Shape: []int{2}, Data: []float64{1, 2}}}
				call = svc.On("SetWeights", mock.Anything, want).Return(tc.svcErr).Once()
			}

			res, err := testRequest{
				client:      ts.Client(),
				method:      http.MethodPut,
				url:         ts.URL + "/weights",
				contentType: contentType,
				body:        strings.NewReader(tc.body),
			}.make()
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			if call != nil {
				svc.AssertExpectations(t)
				call.Unset()
			}
		})
	}
}

func TestInitializeModel(t *testing.T) {
	ts, svc := newServer(t)
	cfg := model.Config{InputShape: []int{4}, NumClasses: 3, LearningRate: 0.01, BatchSize: 16, Epochs: 10}
	built := cfg.Normalize()

	cases := []struct {
		desc     string
		body     string
		svcErr   error
		status   int
		callsSvc bool
	}{
		{
			desc:     "tabular model",
			body:     `{"input_shape":[4],"num_classes":3,"learning_rate":0.01,"batch_size":16,"epochs":10}`,
			status:   http.StatusCreated,
			callsSvc: true,
		},
		{
			desc:     "during a round",
			body:     `{"input_shape":[4],"num_classes":3,"learning_rate":0.01,"batch_size":16,"epochs":10}`,
			svcErr:   pkgerrors.ErrAlreadyTraining,
			status:   http.StatusConflict,
			callsSvc: true,
		},
		{
			desc:   "rank four input",
			body:   `{"input_shape":[1,2,3,4],"num_classes":3,"learning_rate":0.01,"batch_size":16,"epochs":10}`,
			status: http.StatusBadRequest,
		},
		{
			desc:   "zero learning rate",
			body:   `{"input_shape":[4],"num_classes":3,"learning_rate":0,"batch_size":16,"epochs":10}`,
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			var call *mock.Call
			if tc.callsSvc {
				call = svc.On("InitializeModel", mock.Anything, cfg).Return(built, tc.svcErr).Once()
			}

			res, err := testRequest{
				client:      ts.Client(),
				method:      http.MethodPost,
				url:         ts.URL + "/model",
				contentType: contentType,
				body:        strings.NewReader(tc.body),
			}.make()
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			if tc.status == http.StatusCreated {
				var body map[string]any
				require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
				assert.Equal(t, "tabular", body["task_kind"])
				assert.Equal(t, []any{float64(3)}, body["output_shape"])
			}
			if call != nil {
				svc.AssertExpectations(t)
				call.Unset()
			}
		})
	}
}

func TestSetConfig(t *testing.T) {
	ts, svc := newServer(t)
	lr := 0.1
	cfg := model.DefaultConfig()
	cfg.LearningRate = lr

	svc.On("SetConfig", mock.Anything, model.ConfigPatch{LearningRate: &lr}).
		Return(coordinator.ConfigInfo{Config: cfg, Queued: true}, nil).Once()

	res, err := testRequest{
		client:      ts.Client(),
		method:      http.MethodPatch,
		url:         ts.URL + "/model/config",
		contentType: contentType,
		body:        strings.NewReader(`{"learning_rate":0.1}`),
	}.make()
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var got coordinator.ConfigInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.True(t, got.Queued)
	assert.Equal(t, lr, got.Config.LearningRate)
	svc.AssertExpectations(t)
}

func TestUploadData(t *testing.T) {
	ts, svc := newServer(t)

	cases := []struct {
		desc     string
		body     string
		svcErr   error
		status   int
		callsSvc bool
	}{
		{desc: "valid data", body: `{"features":[[1,2],[3,4]],"labels":[0,1]}`, status: http.StatusCreated, callsSvc: true},
		{desc: "rejected by model", body: `{"features":[[1,2]],"labels":[7]}`, svcErr: pkgerrors.ErrInvalidData, status: http.StatusBadRequest, callsSvc: true},
		{desc: "no features", body: `{"features":[],"labels":[]}`, status: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			var call *mock.Call
			if tc.callsSvc {
				call = svc.On("UploadData", mock.Anything, mock.AnythingOfType("model.TrainingData")).
					Return(coordinator.DataInfo{Samples: 2}, tc.svcErr).Once()
			}

			res, err := testRequest{
				client:      ts.Client(),
				method:      http.MethodPost,
				url:         ts.URL + "/data",
				contentType: contentType,
				body:        strings.NewReader(tc.body),
			}.make()
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			if call != nil {
				svc.AssertExpectations(t)
				call.Unset()
			}
		})
	}
}

func TestRestoreCheckpoint(t *testing.T) {
	ts, svc := newServer(t)

	cases := []struct {
		desc   string
		tag    string
		svcErr error
		status int
	}{
		{desc: "known tag", tag: "round-3", status: http.StatusOK},
		{desc: "unknown tag", tag: "round-9", svcErr: pkgerrors.ErrNotFound, status: http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			call := svc.On("RestoreCheckpoint", mock.Anything, tc.tag).Return(tc.svcErr).Once()

			res, err := testRequest{client: ts.Client(), method: http.MethodPost, url: ts.URL + "/checkpoints/" + tc.tag + "/restore"}.make()
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			svc.AssertExpectations(t)
			call.Unset()
		})
	}
}

func TestListPeersAndActivity(t *testing.T) {
	ts, svc := newServer(t)
	now := time.Now().UTC().Truncate(time.Second)
	svc.On("ListPeers", mock.Anything).Return([]peer.Peer{{ID: "peer-a", State: peer.Connected, FirstSeen: now, LastSeen: now}}, nil).Once()
	svc.On("Activity", mock.Anything, 5).Return(nil, nil).Once()

	res, err := testRequest{client: ts.Client(), method: http.MethodGet, url: ts.URL + "/peers"}.make()
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list struct {
		Total uint64      `json:"total"`
		Peers []peer.Peer `json:"peers"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	assert.Equal(t, uint64(1), list.Total)
	assert.Equal(t, peer.Connected, list.Peers[0].State)

	res, err = testRequest{client: ts.Client(), method: http.MethodGet, url: ts.URL + "/activity?limit=5"}.make()
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	svc.AssertExpectations(t)
}

func TestEventStream(t *testing.T) {
	ts, svc := newServer(t)
	ch := make(chan events.Event, 2)
	svc.On("Subscribe", mock.Anything).Return((<-chan events.Event)(ch)).Once()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events?kind=round_completed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	ch <- events.New(events.RoundStarted, 1, nil)
	ch <- events.New(events.RoundCompleted, 1, map[string]any{"loss": 0.3})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var e events.Event
	require.NoError(t, json.Unmarshal(msg, &e))
	assert.Equal(t, events.RoundCompleted, e.Kind, "filtered kinds must not reach the client")
	assert.Equal(t, uint64(1), e.Round)
}

func TestHealth(t *testing.T) {
	ts, _ := newServer(t)

	res, err := testRequest{client: ts.Client(), method: http.MethodGet, url: ts.URL + "/health"}.make()
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
