// Package common contains small helpers shared by the harness packages.
package common

import (
	"math/big"

	"github.com/dustin/go-humanize"
	"github.com/nftgas/gastest/params"
)

// CommaGroup renders count in base 10 with a comma between every group of three
// digits, counted from the least significant digit.
func CommaGroup(count uint64) string {
	return humanize.BigComma(new(big.Int).SetUint64(count))
}

// ToHighLevelUnit converts a raw gas count into NEAR for display. Large counts
// lose precision.
func ToHighLevelUnit(count uint64) float64 {
	return float64(count) / params.GasPerNear
}
