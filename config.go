package fedpeer

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
)

// Config is the optional node file. Values here override nothing set
// through the environment; they fill what the environment leaves empty.
type Config struct {
	Node  NodeConfig   `toml:"node"`
	MQTT  MQTTConfig   `toml:"mqtt"`
	Model model.Config `toml:"model"`

	hasModel bool `toml:"-"`
}

type NodeConfig struct {
	PeerID string `toml:"peer_id"`
	// Participants is the default peer list for rounds started from the
	// CLI without explicit participants.
	Participants []string `toml:"participants"`
}

type MQTTConfig struct {
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	BaseTopic string `toml:"base_topic"`
}

// InitialModel returns the model section when the file has one.
func (c *Config) InitialModel() (model.Config, bool) {
	return c.Model, c.hasModel
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.hasModel = tree.Has("model")
	if cfg.hasModel {
		cfg.Model = cfg.Model.Normalize()
		if err := cfg.Model.Validate(); err != nil {
			return nil, fmt.Errorf("invalid model section: %w", err)
		}
	}

	return &cfg, nil
}
