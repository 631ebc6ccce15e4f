package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sephra1/lisk-sdk/chain"
	"github.com/Sephra1/lisk-sdk/config"
	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/events"
	"github.com/Sephra1/lisk-sdk/executor"
	"github.com/Sephra1/lisk-sdk/logx"
	"github.com/Sephra1/lisk-sdk/mempool"
	"github.com/Sephra1/lisk-sdk/monitoring"
	"github.com/Sephra1/lisk-sdk/network"
	"github.com/Sephra1/lisk-sdk/rounds"
	"github.com/Sephra1/lisk-sdk/store"
	"github.com/Sephra1/lisk-sdk/types"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run the chain node",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		node, cleanup, err := buildNode(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		monitoring.Serve(node.cfg.Monitoring.Addr)

		if err := bootstrap(ctx, node); err != nil {
			return err
		}

		broadcaster := network.NewBroadcaster(node.bus, node.cfg.Network.Peers,
			time.Duration(node.cfg.Network.BroadcastTimeoutMs)*time.Millisecond)
		broadcaster.Start(ctx)

		logx.Info("NODE", "Node running, tip height ", node.chain.LastBlock().Height)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logx.Info("NODE", "Shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nodeCmd)
}

// bootstrap persists and applies the genesis block on first start, or loads
// the tip from storage on every later start
func bootstrap(ctx context.Context, node *nodeDeps) error {
	height, err := node.blocks.MaxHeight(ctx)
	if err != nil {
		return err
	}
	if err := node.chain.SaveGenesisBlock(ctx); err != nil {
		return err
	}
	if height == 0 {
		// fresh storage: replay genesis to seed the account ledger
		if err := node.chain.ApplyGenesisBlock(ctx, node.genesis); err != nil {
			var fatal *chain.ConsistencyFatal
			if errors.As(err, &fatal) {
				logx.Error("NODE", "Genesis bootstrap failed, halting: ", fatal.Error())
			}
			return err
		}
		return nil
	}
	return node.chain.LoadLastBlock(ctx)
}

// nodeDeps bundles the wired chain with what the commands need around it
type nodeDeps struct {
	cfg     *config.NodeConfig
	chain   *chain.Chain
	blocks  store.BlockStore
	genesis *types.Block
	bus     *events.Bus
}

// buildNode wires the full dependency graph from configuration
func buildNode(ctx context.Context) (*nodeDeps, func(), error) {
	cfg, err := config.LoadNodeConfig(nodeConfigPath)
	if err != nil {
		return nil, nil, err
	}
	genesisCfg, err := config.LoadGenesisConfig(genesisConfigPath)
	if err != nil {
		return nil, nil, err
	}
	genesis, err := config.BuildGenesisBlock(genesisCfg)
	if err != nil {
		return nil, nil, err
	}

	pg, err := db.NewPostgres(ctx, cfg.DB.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}

	kv, err := db.NewLevelDBProvider(filepath.Join(cfg.DB.DataDir, "txmeta"))
	if err != nil {
		pg.Close()
		return nil, nil, err
	}

	blocks, err := store.NewSQLBlockStore(pg)
	if err != nil {
		pg.Close()
		return nil, nil, err
	}
	accounts, err := store.NewSQLAccountStore(pg)
	if err != nil {
		pg.Close()
		return nil, nil, err
	}
	txMeta, err := store.NewGenericTxMetaStore(kv)
	if err != nil {
		pg.Close()
		return nil, nil, err
	}

	exec := executor.NewExecutor(accounts, genesis.GeneratorPublicKey)
	pool := mempool.NewPool(exec, accounts, cfg.Mempool.MaxTxs)
	roundCtl, err := rounds.NewController(accounts, cfg.Rounds.DelegatesPerRound, cfg.Rounds.SnapshotRound)
	if err != nil {
		pg.Close()
		return nil, nil, err
	}
	bus := events.NewBus()

	c, err := chain.New(chain.Deps{
		Blocks:    blocks,
		Accounts:  accounts,
		TxMeta:    txMeta,
		Executor:  exec,
		Pool:      pool,
		Rounds:    roundCtl,
		TxManager: db.NewTxManager(pg),
		Bus:       bus,
		Genesis:   genesis,
	})
	if err != nil {
		pg.Close()
		return nil, nil, err
	}

	cleanup := func() {
		txMeta.MustClose()
		pg.Close()
	}
	return &nodeDeps{cfg: cfg, chain: c, blocks: blocks, genesis: genesis, bus: bus}, cleanup, nil
}
