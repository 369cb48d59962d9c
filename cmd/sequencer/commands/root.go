package commands

import (
	"github.com/mosaicnetworks/sequencer/src/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli carries the configuration shared by the subcommands. Each root command
// owns its own viper instance.
type cli struct {
	conf  *config.Config
	viper *viper.Viper
}

//NewRootCmd returns the root command for the sequencer, with the run, keygen
//and version subcommands attached
func NewRootCmd() *cobra.Command {
	return newRootCmd(config.NewDefaultConfig())
}

func newRootCmd(conf *config.Config) *cobra.Command {
	c := &cli{
		conf:  conf,
		viper: viper.New(),
	}

	rootCmd := &cobra.Command{
		Use:              "sequencer",
		Short:            "sequencer node with pluggable query backends",
		TraverseChildren: true,
		SilenceUsage:     true,
		SilenceErrors:    true,
	}

	rootCmd.PersistentFlags().String("datadir", conf.DataDir, "Top-level directory for configuration and data")
	rootCmd.PersistentFlags().String("log", conf.LogLevel, "debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().String("log-file", conf.LogFile, "Copy Info and above to this file")

	rootCmd.AddCommand(
		c.newRunCmd(),
		c.newKeygenCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
