package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
	"github.com/spf13/cobra"
)

const defaultPublicKeyFile = "key.pub"

func (c *cli) newKeygenCmd() *cobra.Command {
	var privKeyFile, pubKeyFile string

	cmd := &cobra.Command{
		Use:     "keygen",
		Short:   "Create new key pair",
		PreRunE: c.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			if privKeyFile == "" {
				privKeyFile = c.conf.Keyfile()
			}
			if pubKeyFile == "" {
				pubKeyFile = filepath.Join(filepath.Dir(privKeyFile), defaultPublicKeyFile)
			}
			return keygen(cmd, privKeyFile, pubKeyFile)
		},
	}

	cmd.Flags().StringVar(&privKeyFile, "priv", "", "File where the private key will be written (default [datadir]/priv_key)")
	cmd.Flags().StringVar(&pubKeyFile, "pub", "", "File where the public key will be written (default next to the private key)")

	return cmd
}

func keygen(cmd *cobra.Command, privKeyFile, pubKeyFile string) error {
	if _, err := os.Stat(privKeyFile); err == nil {
		return fmt.Errorf("a key already lives under: %s", filepath.Dir(privKeyFile))
	}

	key, err := keys.GenerateKey()
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	if err := keys.NewSimpleKeyfile(privKeyFile).WriteKey(key); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Your private key has been saved to: %s\n", privKeyFile)

	if err := os.MkdirAll(filepath.Dir(pubKeyFile), 0700); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	pub := keys.PublicKeyHex(key.PubKey())

	if err := os.WriteFile(pubKeyFile, []byte(pub), 0600); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Your public key has been saved to: %s\n", pubKeyFile)

	return nil
}
