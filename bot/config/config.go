package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/vkotov/clipcoin/core/config"
	coredatabase "github.com/vkotov/clipcoin/core/database"
)

// EconomyConfig holds the coin economy settings.
type EconomyConfig struct {
	// VideoPrice is the coin cost of dispensing one video.
	VideoPrice int64 `yaml:"video_price" envconfig:"VIDEO_PRICE"`
	// ReferralReward is the coin credit an inviter receives per referral.
	ReferralReward int64 `yaml:"referral_reward" envconfig:"REFERRAL_REWARD"`
}

// SenderConfig sizes the asynchronous outbound dispatcher. Zero values fall
// back to the dispatcher defaults.
type SenderConfig struct {
	QueueSize int `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE"`
	Workers   int `yaml:"workers" envconfig:"SENDER_WORKERS"`
}

// AppConfig holds bot-specific settings on top of the core config.
type AppConfig struct {
	// ChannelID is the channel whose membership gates feature use.
	// Accepts "@username" or a numeric chat ID. Empty disables gating.
	ChannelID string        `yaml:"channel_id" envconfig:"CHANNEL_ID"`
	Economy   EconomyConfig `yaml:"economy"`
	Sender    SenderConfig  `yaml:"sender"`
}

// Config aggregates core, database, and bot-level configuration.
type Config struct {
	Core     coreconfig.Config   `yaml:"core"`
	Database coredatabase.Config `yaml:"database"`
	App      AppConfig           `yaml:"app"`
}

// CoreConfig exposes the embedded core configuration for the cmd runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Economy.VideoPrice <= 0 {
		cfg.App.Economy.VideoPrice = 2
	}
	if cfg.App.Economy.ReferralReward <= 0 {
		cfg.App.Economy.ReferralReward = 10
	}
}
