// Package features maps raw transaction records onto the fixed numeric vector
// the intent classifier consumes. The vector layout is position-significant
// and shared by feature extraction, the heuristic decision rules, and the
// trained model; changing it invalidates any persisted model artifact.
package features

import (
	"gonum.org/v1/gonum/stat"

	"tokenflow-intent/internal/registry"
)

// VectorLen is the fixed feature vector length.
const VectorLen = 10

// Feature vector field positions.
const (
	IdxInstructionCount = iota
	IdxAccountCount
	IdxFee
	IdxTransferCount
	IdxUniqueMints
	IdxHasDEX
	IdxHasBridge
	IdxHasLending
	IdxAmountDispersion
	IdxProgramDiversity
)

// Vector is one extracted feature vector. All entries are finite.
type Vector [VectorLen]float64

// Floats returns the vector as a plain slice for matrix assembly.
func (v Vector) Floats() []float64 {
	out := make([]float64, VectorLen)
	copy(out, v[:])
	return out
}

// Extractor computes feature vectors against a fixed program registry.
type Extractor struct {
	reg *registry.Registry
}

// NewExtractor creates an extractor bound to the given registry.
func NewExtractor(reg *registry.Registry) *Extractor {
	return &Extractor{reg: reg}
}

// Extract maps a transaction onto its feature vector. It is a pure function:
// malformed or absent fields default to zero, never an error.
func (e *Extractor) Extract(tx Transaction) Vector {
	var v Vector

	v[IdxInstructionCount] = float64(len(tx.Instructions))
	v[IdxAccountCount] = float64(len(tx.Accounts))
	v[IdxFee] = float64(tx.Fee)

	// Mints are bucketed by identifier; transfers with no mint share a single
	// empty-string bucket rather than being skipped.
	mints := make(map[string]struct{})
	var amounts []float64
	transferCount := 0
	for _, in := range tx.Instructions {
		if !in.IsTransfer() {
			continue
		}
		transferCount++
		mints[in.Parsed.Info.Mint] = struct{}{}
		amounts = append(amounts, float64(in.Parsed.Info.Amount))
	}
	v[IdxTransferCount] = float64(transferCount)
	v[IdxUniqueMints] = float64(len(mints))

	if e.reg.AnyDEX(tx.Accounts) {
		v[IdxHasDEX] = 1
	}
	if e.reg.AnyBridge(tx.Accounts) {
		v[IdxHasBridge] = 1
	}
	if e.reg.AnyLending(tx.Accounts) {
		v[IdxHasLending] = 1
	}

	// Population standard deviation; defined as 0 below two samples.
	if len(amounts) > 1 {
		v[IdxAmountDispersion] = stat.PopStdDev(amounts, nil)
	}

	programs := make(map[string]struct{})
	for _, in := range tx.Instructions {
		programs[in.programKey()] = struct{}{}
	}
	v[IdxProgramDiversity] = float64(len(programs))

	return v
}
