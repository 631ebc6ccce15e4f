package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	nodeConfigPath    string
	genesisConfigPath string
)

var rootCmd = &cobra.Command{
	Use:   "chaind",
	Short: "Delegated-proof-of-stake chain node",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&nodeConfigPath, "config", "./config/node.ini", "path to node ini config")
	rootCmd.PersistentFlags().StringVar(&genesisConfigPath, "genesis", "./config/genesis.yml", "path to genesis yaml config")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
