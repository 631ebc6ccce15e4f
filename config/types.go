package config

// GenesisTransaction is one seed transaction of the genesis block
type GenesisTransaction struct {
	Type             int32    `yaml:"type"`
	SenderPublicKey  string   `yaml:"sender_public_key"`
	RecipientAddress string   `yaml:"recipient_address,omitempty"`
	Amount           string   `yaml:"amount,omitempty"`
	Fee              string   `yaml:"fee,omitempty"`
	Username         string   `yaml:"username,omitempty"`
	Votes            []string `yaml:"votes,omitempty"`
}

// GenesisConfig holds the configuration from genesis.yml
type GenesisConfig struct {
	GeneratorPublicKey string               `yaml:"generator_public_key"`
	Timestamp          uint64               `yaml:"timestamp"`
	BlockSignature     string               `yaml:"block_signature"`
	Transactions       []GenesisTransaction `yaml:"transactions"`
}

// ConfigFile is the top-level structure for genesis.yml
type ConfigFile struct {
	Config GenesisConfig `yaml:"config"`
}
