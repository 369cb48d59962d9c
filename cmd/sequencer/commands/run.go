package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
	"github.com/mosaicnetworks/sequencer/src/node"
	"github.com/mosaicnetworks/sequencer/src/peers"
	"github.com/mosaicnetworks/sequencer/src/sequencer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func (c *cli) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: c.loadConfig,
		RunE:    c.runSequencer,
	}
	c.addRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func (c *cli) runSequencer(cmd *cobra.Command, args []string) error {
	logger := c.conf.Logger()

	key, err := keys.NewSimpleKeyfile(c.conf.Keyfile()).ReadKey()
	if err != nil {
		return fmt.Errorf("reading key (run keygen first): %w", err)
	}
	c.conf.Key = key

	validator := node.NewValidator(key, c.conf.Moniker)

	peerSet, err := c.loadPeers(validator)
	if err != nil {
		return err
	}

	nodeConf := node.NewConfig(
		c.conf.HeartbeatTimeout,
		c.conf.SlowHeartbeatTimeout,
		c.conf.MaxBlockTxs,
		logger.WithField("component", "engine"),
	)

	n, err := sequencer.Serve(
		cmd.Context(),
		c.conf.Options(),
		node.NewInitHandle(nodeConf, validator, peerSet),
		logger,
	)
	if err != nil {
		logger.WithError(err).Error("Cannot start node")
		return err
	}

	logger.WithFields(logrus.Fields{
		"addr":       n.Addr().String(),
		"node_index": n.NodeIndex,
	}).Info("Node running")

	return n.Wait()
}

// loadPeers reads peers.json from the data directory. Without the file the
// node runs alone.
func (c *cli) loadPeers(validator *node.Validator) (*peers.PeerSet, error) {
	store := peers.NewJSONPeerSet(c.conf.DataDir)

	peerSet, err := store.PeerSet()
	if errors.Is(err, fs.ErrNotExist) {
		c.conf.Logger().WithField("path", store.Path()).Debug("No peers file, running as single validator")
		return peers.NewPeerSet([]*peers.Peer{
			peers.NewPeer(validator.PublicKeyHex(),
				fmt.Sprintf("127.0.0.1:%d", c.conf.APIPort),
				c.conf.Moniker),
		}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", store.Path(), err)
	}

	return peerSet, nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

func (c *cli) addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("moniker", c.conf.Moniker, "Optional name")

	// API
	cmd.Flags().Int("api-port", c.conf.APIPort, "Port of the HTTP API")
	cmd.Flags().Bool("submit", c.conf.Submit, "Enable the transaction submission module")

	// SQL backend
	cmd.Flags().Bool("query-sql", c.conf.QuerySQL, "Serve availability and status from a SQL database")
	cmd.Flags().String("sql-driver", c.conf.SQLDriver, "postgres or sqlite3")
	cmd.Flags().String("postgres-host", c.conf.PostgresHost, "Database host")
	cmd.Flags().Int("postgres-port", c.conf.PostgresPort, "Database port")
	cmd.Flags().String("postgres-database", c.conf.PostgresDatabase, "Database name, or file path with sqlite3")
	cmd.Flags().String("postgres-user", c.conf.PostgresUser, "Database user")
	cmd.Flags().String("postgres-password", c.conf.PostgresPassword, "Database password")

	// FS backend
	cmd.Flags().Bool("query-fs", c.conf.QueryFS, "Serve availability and status from a local store")
	cmd.Flags().String("storage-path", c.conf.StoragePath, "Directory of the local store")
	cmd.Flags().Bool("reset-store", c.conf.ResetStore, "Wipe the local store before opening it")

	// Engine
	cmd.Flags().Duration("heartbeat", c.conf.HeartbeatTimeout, "View timer with pending transactions")
	cmd.Flags().Duration("slow-heartbeat", c.conf.SlowHeartbeatTimeout, "View timer with an empty pool")
	cmd.Flags().Int("max-block-txs", c.conf.MaxBlockTxs, "Max number of transactions per block")
}

func (c *cli) loadConfig(cmd *cobra.Command, args []string) error {
	if err := c.bindFlagsLoadViper(cmd); err != nil {
		return err
	}

	// If --datadir was explicitly set, but not --storage-path, this will
	// move the default store inside the new datadir
	c.conf.SetDataDir(c.conf.DataDir)

	c.conf.Logger().WithFields(logrus.Fields{
		"datadir":           c.conf.DataDir,
		"log":               c.conf.LogLevel,
		"log-file":          c.conf.LogFile,
		"moniker":           c.conf.Moniker,
		"api-port":          c.conf.APIPort,
		"submit":            c.conf.Submit,
		"query-sql":         c.conf.QuerySQL,
		"sql-driver":        c.conf.SQLDriver,
		"postgres-host":     c.conf.PostgresHost,
		"postgres-port":     c.conf.PostgresPort,
		"postgres-database": c.conf.PostgresDatabase,
		"postgres-user":     c.conf.PostgresUser,
		"query-fs":          c.conf.QueryFS,
		"storage-path":      c.conf.StoragePath,
		"reset-store":       c.conf.ResetStore,
		"heartbeat":         c.conf.HeartbeatTimeout,
		"slow-heartbeat":    c.conf.SlowHeartbeatTimeout,
		"max-block-txs":     c.conf.MaxBlockTxs,
		"config-file":       c.viper.ConfigFileUsed(),
	}).Debug("RUN")

	return nil
}

// Bind all flags and the environment, and read the config into viper
func (c *cli) bindFlagsLoadViper(cmd *cobra.Command) error {
	v := c.viper

	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// SEQUENCER_API_PORT overrides api-port, and so on
	v.SetEnvPrefix("SEQUENCER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// first unmarshal to read from CLI flags
	if err := v.Unmarshal(c.conf); err != nil {
		return err
	}

	// look for config file in [datadir]/sequencer.toml (.json, .yaml also work)
	v.SetConfigName("sequencer")
	v.AddConfigPath(c.conf.DataDir)

	// If a config file is found, read it in.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	// second unmarshal to read from config file
	return v.Unmarshal(c.conf)
}
