// Package heuristic implements the priority-ordered rule chain that maps
// transaction facts to an intent label. The same chain serves two callers:
// the classifier's fallback path when no trained model is loaded, and the
// auto-labeler that generates weak-supervision training labels. Keeping one
// decision core prevents the trained model from learning against labels the
// fallback would disagree with.
package heuristic

import (
	"tokenflow-intent/internal/features"
	"tokenflow-intent/internal/intent"
	"tokenflow-intent/internal/registry"
)

// Rule confidences are fixed constants per rule, not probabilities.
const (
	ConfBridging     = 0.85
	ConfTrading      = 0.80
	ConfArbitrage    = 0.75
	ConfYieldFarming = 0.70
	ConfTransfer     = 0.90
	ConfUnknown      = 0.50
)

// Facts are the primitive transaction properties the rule chain evaluates.
type Facts struct {
	HasDEX           bool
	HasBridge        bool
	HasLending       bool
	TransferCount    int
	InstructionCount int
}

// FactsFromVector derives facts from an extracted feature vector.
func FactsFromVector(v features.Vector) Facts {
	return Facts{
		HasDEX:           v[features.IdxHasDEX] > 0,
		HasBridge:        v[features.IdxHasBridge] > 0,
		HasLending:       v[features.IdxHasLending] > 0,
		TransferCount:    int(v[features.IdxTransferCount]),
		InstructionCount: int(v[features.IdxInstructionCount]),
	}
}

// FactsFromTransaction derives facts directly from raw transaction data,
// bypassing feature extraction. The auto-labeler uses this path so that label
// derivation does not depend on the feature pipeline it is meant to supervise.
func FactsFromTransaction(tx features.Transaction, reg *registry.Registry) Facts {
	f := Facts{
		HasDEX:           reg.AnyDEX(tx.Accounts),
		HasBridge:        reg.AnyBridge(tx.Accounts),
		HasLending:       reg.AnyLending(tx.Accounts),
		InstructionCount: len(tx.Instructions),
	}
	for _, in := range tx.Instructions {
		if in.IsTransfer() {
			f.TransferCount++
		}
	}
	return f
}

// decide is the shared rule chain. Rules are mutually exclusive and evaluated
// in priority order; the first match wins. loneInstruction tightens the
// transfer rule to require the transfer be the transaction's only instruction.
// Labeling uses the tight form for precision; the inference fallback does not.
// The asymmetry is deliberate and must not be unified.
func decide(f Facts, loneInstruction bool) (intent.Label, float64) {
	switch {
	case f.HasBridge:
		return intent.Bridging, ConfBridging
	case f.HasDEX:
		if f.TransferCount > 2 {
			return intent.Arbitrage, ConfArbitrage
		}
		return intent.Trading, ConfTrading
	case f.HasLending:
		return intent.YieldFarming, ConfYieldFarming
	case f.TransferCount == 1 && (!loneInstruction || f.InstructionCount == 1):
		return intent.Transfer, ConfTransfer
	default:
		return intent.Unknown, ConfUnknown
	}
}

// Decide applies the rule chain with the inference-fallback transfer rule
// (exactly one transfer instruction, regardless of other instructions).
func Decide(f Facts) (intent.Label, float64) {
	return decide(f, false)
}

// Fallback classifies a feature vector when no trained model is available.
func Fallback(v features.Vector) (intent.Label, float64) {
	return decide(FactsFromVector(v), false)
}

// AutoLabel derives a weak-supervision training label from raw transaction
// data. Unlike Fallback it only assigns "transfer" when the transfer is the
// transaction's sole instruction.
func AutoLabel(tx features.Transaction, reg *registry.Registry) intent.Label {
	label, _ := decide(FactsFromTransaction(tx, reg), true)
	return label
}
