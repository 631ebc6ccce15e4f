package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressFromPublicKey derives the account address for a hex-encoded public
// key: base58 of the first 20 bytes of the key's SHA-256 digest.
func AddressFromPublicKey(publicKey string) (string, error) {
	raw, err := hex.DecodeString(publicKey)
	if err != nil {
		return "", fmt.Errorf("invalid public key %q: %w", publicKey, err)
	}
	sum := sha256.Sum256(raw)
	return base58.Encode(sum[:20]), nil
}
