package node

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/sirupsen/logrus"
)

// Config ...
type Config struct {
	HeartbeatTimeout     time.Duration
	SlowHeartbeatTimeout time.Duration
	MaxBlockTxs          int
	SubmitBuffer         int
	Logger               *logrus.Entry
}

// NewConfig ...
func NewConfig(heartbeat time.Duration,
	slowHeartbeat time.Duration,
	maxBlockTxs int,
	logger *logrus.Entry) *Config {

	conf := DefaultConfig()
	conf.HeartbeatTimeout = heartbeat
	conf.SlowHeartbeatTimeout = slowHeartbeat
	conf.MaxBlockTxs = maxBlockTxs
	conf.Logger = logger
	return conf
}

// Validate rejects settings the engine cannot run with. Errors are
// ConfigErrors.
func (c *Config) Validate() error {
	if c.HeartbeatTimeout <= 0 {
		return common.Errorf(common.ConfigError, "validate engine config",
			"heartbeat must be positive, got %s", c.HeartbeatTimeout)
	}
	if c.SlowHeartbeatTimeout <= 0 {
		return common.Errorf(common.ConfigError, "validate engine config",
			"slow heartbeat must be positive, got %s", c.SlowHeartbeatTimeout)
	}
	if c.MaxBlockTxs <= 0 {
		return common.Errorf(common.ConfigError, "validate engine config",
			"max block txs must be positive, got %d", c.MaxBlockTxs)
	}
	if c.SubmitBuffer < 0 {
		return common.Errorf(common.ConfigError, "validate engine config",
			"negative submit buffer %d", c.SubmitBuffer)
	}
	return nil
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		HeartbeatTimeout:     100 * time.Millisecond,
		SlowHeartbeatTimeout: 1000 * time.Millisecond,
		MaxBlockTxs:          1000,
		SubmitBuffer:         1024,
		Logger:               logrus.NewEntry(logger),
	}
}

// TestConfig has fast heartbeats and logs through t.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.HeartbeatTimeout = 5 * time.Millisecond
	config.SlowHeartbeatTimeout = 20 * time.Millisecond
	config.Logger = common.NewTestEntry(t, common.TestLogLevel)
	return config
}
