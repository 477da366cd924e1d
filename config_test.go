package fedpeer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fedpeer "github.com/yahyaAbdulSattar/major-project"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadConfig(t *testing.T) {
	cases := []struct {
		desc     string
		body     string
		peerID   string
		hasModel bool
		err      error
	}{
		{
			desc: "full file",
			body: `
[node]
peer_id = "node-1"
participants = ["peer-a", "peer-b"]

[mqtt]
username = "node"
password = "secret"
base_topic = "lab"

[model]
input_shape = [4]
num_classes = 3
learning_rate = 0.01
batch_size = 16
epochs = 10
`,
			peerID:   "node-1",
			hasModel: true,
		},
		{
			desc: "without model",
			body: `
[node]
peer_id = "node-2"
`,
			peerID: "node-2",
		},
		{
			desc: "invalid model",
			body: `
[model]
input_shape = [4]
learning_rate = 0.0
batch_size = 16
epochs = 10
`,
			err: pkgerrors.ErrInvalidConfig,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg, err := fedpeer.LoadConfig(writeConfig(t, tc.body))
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.peerID, cfg.Node.PeerID)

			m, ok := cfg.InitialModel()
			assert.Equal(t, tc.hasModel, ok)
			if ok {
				assert.Equal(t, []int{4}, m.InputShape)
				assert.Equal(t, []int{3}, m.OutputShape)
				assert.Equal(t, 16, m.BatchSize)
				assert.Equal(t, []string{"peer-a", "peer-b"}, cfg.Node.Participants)
				assert.Equal(t, "lab", cfg.MQTT.BaseTopic)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := fedpeer.LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadConfigMalformed(t *testing.T) {
	_, err := fedpeer.LoadConfig(writeConfig(t, "[node\npeer_id = "))
	assert.Error(t, err)
}
