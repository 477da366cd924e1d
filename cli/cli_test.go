package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yahyaAbdulSattar/major-project/pkg/sdk"
)

var root = func() *cobra.Command {
	cmd := &cobra.Command{Use: "fedpeer-cli"}
	cmd.AddCommand(NewRoundsCmd(), NewStatusCmd(), NewModelCmd(), NewDataCmd(), NewPeersCmd())

	return cmd
}()

type hit struct {
	method string
	path   string
	body   string
}

func run(t *testing.T, status int, reply string, args ...string) (string, string, *hit) {
	t.Helper()

	h := &hit{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		h.method, h.path, h.body = r.Method, r.URL.Path, string(body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	defer ts.Close()
	SetSDK(sdk.NewSDK(sdk.Config{NodeURL: ts.URL}))

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	require.NoError(t, root.Execute())

	return stdout.String(), stderr.String(), h
}

func TestParseDims(t *testing.T) {
	cases := []struct {
		desc string
		in   string
		dims []int
		err  bool
	}{
		{desc: "empty", in: " "},
		{desc: "single", in: "4", dims: []int{4}},
		{desc: "image", in: "28, 28,1", dims: []int{28, 28, 1}},
		{desc: "not a number", in: "4,x", err: true},
		{desc: "zero", in: "0", err: true},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			dims, err := parseDims(tc.in)
			if tc.err {
				assert.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.dims, dims)
		})
	}
}

func TestModelAnswers(t *testing.T) {
	a := defaultAnswers()
	a.InputShape = "4"
	a.NumClasses = "3"
	a.HiddenUnits = "16,8"

	cfg, err := a.config()
	require.NoError(t, err)
	assert.Equal(t, sdk.ModelConfig{
		InputShape:   []int{4},
		NumClasses:   3,
		HiddenUnits:  []int{16, 8},
		LearningRate: 0.01,
		BatchSize:    32,
		Epochs:       5,
	}, cfg)

	a.LearningRate = "fast"
	_, err = a.config()
	assert.Error(t, err)
}

func TestRoundsStart(t *testing.T) {
	cases := []struct {
		desc         string
		args         []string
		defaults     []string
		status       int
		reply        string
		body         string
		out          string
		errOut       string
		expectCalled bool
	}{
		{
			desc:         "named peers",
			args:         []string{"rounds", "start", "peer-a", "peer-b"},
			status:       http.StatusCreated,
			reply:        `{"round_number":1,"participants":["peer-a","peer-b"]}`,
			body:         `{"participants":["peer-a","peer-b"]}`,
			out:          `"round_number": 1`,
			expectCalled: true,
		},
		{
			desc:         "config participants",
			args:         []string{"rounds", "start"},
			defaults:     []string{"peer-c"},
			status:       http.StatusCreated,
			reply:        `{"round_number":2,"participants":["peer-c"]}`,
			body:         `{"participants":["peer-c"]}`,
			out:          `"peer-c"`,
			expectCalled: true,
		},
		{
			desc: "no participants",
			args: []string{"rounds", "start"},
			out:  "usage: start [peer_id...]",
		},
		{
			desc:         "already training",
			args:         []string{"rounds", "start", "peer-a"},
			status:       http.StatusConflict,
			reply:        `{"error":"round already in progress"}`,
			body:         `{"participants":["peer-a"]}`,
			errOut:       "round already in progress",
			expectCalled: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			SetDefaultParticipants(tc.defaults)
			defer SetDefaultParticipants(nil)

			out, errOut, h := run(t, tc.status, tc.reply, tc.args...)
			assert.Contains(t, out, tc.out)
			assert.Contains(t, errOut, tc.errOut)
			if !tc.expectCalled {
				assert.Empty(t, h.path)

				return
			}
			assert.Equal(t, "/rounds", h.path)
			assert.JSONEq(t, tc.body, h.body)
		})
	}
}

func TestModelConfig(t *testing.T) {
	out, errOut, h := run(t, http.StatusOK, `{"config":{"input_shape":[4],"learning_rate":0.001,"batch_size":16,"epochs":3},"queued":true}`,
		"model", "config", "--learning-rate", "0.001", "--epochs", "3")
	assert.Empty(t, errOut)
	assert.Equal(t, http.MethodPatch, h.method)
	assert.JSONEq(t, `{"learning_rate":0.001,"epochs":3}`, h.body)
	assert.Contains(t, out, "config queued")
}

func TestRestoreNotFound(t *testing.T) {
	_, errOut, h := run(t, http.StatusNotFound, `{"error":"entity not found"}`, "model", "restore", "round-9")
	assert.Equal(t, "/checkpoints/round-9/restore", h.path)
	assert.True(t, strings.Contains(errOut, "entity not found"))
}
