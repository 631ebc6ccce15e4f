package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Sephra1/lisk-sdk/logx"
)

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Persist and apply the genesis block, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		node, cleanup, err := buildNode(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := bootstrap(ctx, node); err != nil {
			return err
		}
		logx.Info("GENESIS", "Chain bootstrapped, tip height ", node.chain.LastBlock().Height)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(genesisCmd)
}
