package common

import (
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// EncodeBytesToBase58 encodes raw bytes to base58
func EncodeBytesToBase58(b []byte) string {
	return base58.Encode(b)
}

// DecodeBase58ToBytes decodes a base58 string to raw bytes
func DecodeBase58ToBytes(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base58 string: %w", err)
	}
	return b, nil
}

// EncodeToBase58 encodes a hex string to base58
func EncodeToBase58(hexStr string) (string, error) {
	if len(hexStr) >= 2 && hexStr[:2] == "0x" {
		hexStr = hexStr[2:]
	}

	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex string: %w", err)
	}

	return base58.Encode(bytes), nil
}

// DecodeFromBase58 decodes a base58 string to hex
func DecodeFromBase58(base58Str string) (string, error) {
	bytes, err := base58.Decode(base58Str)
	if err != nil {
		return "", fmt.Errorf("failed to decode base58 string: %w", err)
	}
	if len(bytes) == 0 {
		return "", fmt.Errorf("empty base58 payload")
	}
	return hex.EncodeToString(bytes), nil
}
