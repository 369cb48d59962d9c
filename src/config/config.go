package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultKeyfile is the default name of the file containing the validator's
	// private key
	DefaultKeyfile = "priv_key"

	// DefaultStorageDir is the default name of the folder containing the
	// file-system query store
	DefaultStorageDir = "store"
)

// Default configuration values.
const (
	DefaultLogLevel             = "debug"
	DefaultAPIPort              = 50000
	DefaultSubmit               = false
	DefaultHeartbeatTimeout     = 100 * time.Millisecond
	DefaultSlowHeartbeatTimeout = 1000 * time.Millisecond
	DefaultMaxBlockTxs          = 1000
	DefaultSQLDriver            = "postgres"
	DefaultPostgresHost         = "localhost"
	DefaultPostgresPort         = 5432
	DefaultPostgresDatabase     = "postgres"
	DefaultPostgresUser         = "postgres"
	DefaultPostgresPassword     = ""
)

// Config contains all the configuration properties of a sequencer node.
type Config struct {
	// DataDir is the top-level directory containing the key, the membership
	// file and the default query store.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a copy of every entry at Info level and
	// above.
	LogFile string `mapstructure:"log-file"`

	// APIPort is the port the HTTP server binds to.
	APIPort int `mapstructure:"api-port"`

	// Submit enables the transaction submission module.
	Submit bool `mapstructure:"submit"`

	// QuerySQL enables the availability and status modules backed by a SQL
	// database.
	QuerySQL bool `mapstructure:"query-sql"`

	// SQLDriver is the database/sql driver used by the SQL backend, postgres
	// or sqlite3. With sqlite3, PostgresDatabase is the path of the database
	// file.
	SQLDriver        string `mapstructure:"sql-driver"`
	PostgresHost     string `mapstructure:"postgres-host"`
	PostgresPort     int    `mapstructure:"postgres-port"`
	PostgresDatabase string `mapstructure:"postgres-database"`
	PostgresUser     string `mapstructure:"postgres-user"`
	PostgresPassword string `mapstructure:"postgres-password"`

	// QueryFS enables the availability and status modules backed by a local
	// file-system store.
	QueryFS bool `mapstructure:"query-fs"`

	// StoragePath is the directory of the file-system store.
	StoragePath string `mapstructure:"storage-path"`

	// ResetStore wipes the file-system store before opening it.
	ResetStore bool `mapstructure:"reset-store"`

	// HeartbeatTimeout is the view timer of the sequencing engine when it has
	// pending transactions.
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat"`

	// SlowHeartbeatTimeout is the view timer when the transaction pool is
	// empty.
	SlowHeartbeatTimeout time.Duration `mapstructure:"slow-heartbeat"`

	// MaxBlockTxs caps the number of transactions in a block.
	MaxBlockTxs int `mapstructure:"max-block-txs"`

	// Moniker defines the friendly name of this node
	Moniker string `mapstructure:"moniker"`

	// Key is the private key of the validator.
	Key *btcec.PrivateKey

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values. Backend
// settings are filled even though no backend is enabled by default.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:              DefaultDataDir(),
		LogLevel:             DefaultLogLevel,
		APIPort:              DefaultAPIPort,
		Submit:               DefaultSubmit,
		SQLDriver:            DefaultSQLDriver,
		PostgresHost:         DefaultPostgresHost,
		PostgresPort:         DefaultPostgresPort,
		PostgresDatabase:     DefaultPostgresDatabase,
		PostgresUser:         DefaultPostgresUser,
		PostgresPassword:     DefaultPostgresPassword,
		StoragePath:          DefaultStoragePath(),
		HeartbeatTimeout:     DefaultHeartbeatTimeout,
		SlowHeartbeatTimeout: DefaultSlowHeartbeatTimeout,
		MaxBlockTxs:          DefaultMaxBlockTxs,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.SetDataDir(t.TempDir())
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the storage path if it
// is currently set to the default value.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.StoragePath == DefaultStoragePath() {
		c.StoragePath = filepath.Join(dataDir, DefaultStorageDir)
	}
}

// Keyfile returns the full path of the file containing the private key.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// Options converts the configuration into the immutable module selection.
// It does not validate; see Options.Validate.
func (c *Config) Options() Options {
	opts := NewOptions(HTTP{Port: c.APIPort})

	if c.Submit {
		opts = opts.WithSubmit()
	}

	if c.QuerySQL {
		opts = opts.WithQuerySQL(SQL{
			Driver:   c.SQLDriver,
			Host:     c.PostgresHost,
			Port:     c.PostgresPort,
			Database: c.PostgresDatabase,
			User:     c.PostgresUser,
			Password: c.PostgresPassword,
		})
	}

	if c.QueryFS {
		opts = opts.WithQueryFS(FS{
			StoragePath: c.StoragePath,
			ResetStore:  c.ResetStore,
		})
	}

	return opts
}

// Logger returns a formatted logrus Entry, with prefix set to "sequencer".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			pathMap := lfshook.PathMap{}
			for _, l := range []logrus.Level{
				logrus.InfoLevel,
				logrus.WarnLevel,
				logrus.ErrorLevel,
				logrus.FatalLevel,
				logrus.PanicLevel,
			} {
				pathMap[l] = c.LogFile
			}
			c.logger.Hooks.Add(lfshook.NewHook(
				pathMap,
				&logrus.TextFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "sequencer")
}

// DefaultStoragePath returns the default path of the file-system store.
func DefaultStoragePath() string {
	return filepath.Join(DefaultDataDir(), DefaultStorageDir)
}

// DefaultDataDir return the default directory name for top-level sequencer
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Sequencer")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Sequencer")
		} else {
			return filepath.Join(home, ".sequencer")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
