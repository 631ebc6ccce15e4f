package utils

import (
	"github.com/holiman/uint256"
)

// Uint256ToString converts a *uint256.Int to its decimal string, returning "0" if nil
func Uint256ToString(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return value.Dec()
}

// Uint256FromString parses a decimal string into *uint256.Int, returning 0 on failure
func Uint256FromString(value string) *uint256.Int {
	if value == "" {
		return uint256.NewInt(0)
	}
	v, err := uint256.FromDecimal(value)
	if err != nil {
		return uint256.NewInt(0)
	}
	return v
}

// CloneUint256 returns an independent copy, treating nil as zero
func CloneUint256(value *uint256.Int) *uint256.Int {
	if value == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(value)
}
