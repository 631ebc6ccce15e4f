package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/Sephra1/lisk-sdk/logx"
)

// LoadGenesisConfig reads and parses the genesis.yml file
func LoadGenesisConfig(path string) (*GenesisConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open genesis config %s: %w", path, err)
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, fmt.Errorf("failed to decode genesis config %s: %w", path, err)
	}
	logx.Info("CONFIG", fmt.Sprintf("Loaded genesis config: generator=%s, transactions=%d",
		cfgFile.Config.GeneratorPublicKey, len(cfgFile.Config.Transactions)))
	return &cfgFile.Config, nil
}

type DBConfig struct {
	PostgresDSN string `ini:"postgres_dsn"`
	DataDir     string `ini:"data_dir"`
}

type NetworkConfig struct {
	Peers              []string `ini:"peers,,allowshadow"`
	BroadcastTimeoutMs int      `ini:"broadcast_timeout_ms"`
}

type RoundsConfig struct {
	DelegatesPerRound uint64 `ini:"delegates_per_round"`
	SnapshotRound     uint64 `ini:"snapshot_round"`
}

type MempoolConfig struct {
	MaxTxs int `ini:"max_txs"`
}

type MonitoringConfig struct {
	Addr string `ini:"addr"`
}

// NodeConfig is the runtime configuration loaded from the node ini file
type NodeConfig struct {
	DB         DBConfig
	Network    NetworkConfig
	Rounds     RoundsConfig
	Mempool    MempoolConfig
	Monitoring MonitoringConfig
}

// LoadNodeConfig reads the node ini file, falling back to defaults for
// missing values
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cfg := &NodeConfig{
		DB:         DBConfig{DataDir: "./data"},
		Network:    NetworkConfig{BroadcastTimeoutMs: 5000},
		Rounds:     RoundsConfig{DelegatesPerRound: 101},
		Mempool:    MempoolConfig{MaxTxs: 5000},
		Monitoring: MonitoringConfig{Addr: ":9090"},
	}

	iniFile, err := ini.ShadowLoad(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load node config %s: %w", path, err)
	}
	if err := iniFile.Section("db").MapTo(&cfg.DB); err != nil {
		return nil, fmt.Errorf("invalid [db] section: %w", err)
	}
	if err := iniFile.Section("network").MapTo(&cfg.Network); err != nil {
		return nil, fmt.Errorf("invalid [network] section: %w", err)
	}
	if err := iniFile.Section("rounds").MapTo(&cfg.Rounds); err != nil {
		return nil, fmt.Errorf("invalid [rounds] section: %w", err)
	}
	if err := iniFile.Section("mempool").MapTo(&cfg.Mempool); err != nil {
		return nil, fmt.Errorf("invalid [mempool] section: %w", err)
	}
	if err := iniFile.Section("monitoring").MapTo(&cfg.Monitoring); err != nil {
		return nil, fmt.Errorf("invalid [monitoring] section: %w", err)
	}

	if cfg.DB.PostgresDSN == "" {
		return nil, fmt.Errorf("node config %s is missing db.postgres_dsn", path)
	}
	if cfg.Rounds.DelegatesPerRound == 0 {
		return nil, fmt.Errorf("rounds.delegates_per_round must be positive")
	}
	return cfg, nil
}
