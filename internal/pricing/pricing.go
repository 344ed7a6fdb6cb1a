// Package pricing computes marketplace fees. All functions are pure; inputs
// that could only arise from caller bugs (negative sizes or counts) are
// clamped to zero rather than rejected here.
package pricing

import "math"

// Default demo rates
const (
	DefaultStorageRate = 0.001 // credits per byte
	DefaultEditionRate = 100   // credits per edition
)

// Policy holds the configured marketplace rates
type Policy struct {
	StorageRate float64 // credits per byte, fractional
	EditionRate int64   // credits per edition
}

// Default returns the demo rate policy
func Default() Policy {
	return Policy{StorageRate: DefaultStorageRate, EditionRate: DefaultEditionRate}
}

// StorageFee returns the fee for storing byteSize bytes, rounded up to a
// whole credit. Charged only when the image itself is newly stored.
func (p Policy) StorageFee(byteSize int64) int64 {
	if byteSize <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(byteSize) * p.StorageRate))
}

// MintingFee returns the fee for minting editionCount editions
func (p Policy) MintingFee(editionCount int) int64 {
	if editionCount <= 0 {
		return 0
	}
	return int64(editionCount) * p.EditionRate
}

// TotalMintCost returns the cost of storing an image and minting it in one
// step. The mature flow charges storage at upload time and passes 0 here.
func (p Policy) TotalMintCost(byteSize int64, editionCount int) int64 {
	return p.StorageFee(byteSize) + p.MintingFee(editionCount)
}

// RoyaltyCut returns the creator's share of a sale: ceil(royaltyPercent% of
// price). The seller receives price minus this cut.
func RoyaltyCut(royaltyPercent int, price int64) int64 {
	if royaltyPercent <= 0 || price <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(royaltyPercent) / 100 * float64(price)))
}
