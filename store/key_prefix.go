package store

// Declare database key prefix for metadata objects
const (
	PrefixTxMeta = "tx_meta:"
)
