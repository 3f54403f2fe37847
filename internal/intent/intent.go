// Package intent defines the closed set of economic intent labels the service
// assigns to transactions.
package intent

// Label is one intent class.
type Label string

const (
	Trading      Label = "trading"       // DEX swaps
	YieldFarming Label = "yield_farming" // LP deposits, staking
	Arbitrage    Label = "arbitrage"     // multi-DEX same-token trades
	Bridging     Label = "bridging"      // cross-chain transfers
	Liquidation  Label = "liquidation"   // lending protocol liquidations
	Governance   Label = "governance"    // DAO voting, governance staking
	Transfer     Label = "transfer"      // simple wallet-to-wallet
	Unknown      Label = "unknown"
)

// All lists every label in canonical order. Liquidation and Governance are
// part of the enumeration but no current heuristic rule or labeling path
// produces them; they stay reachable only through a future training source
// that emits them directly.
var All = []Label{
	Trading,
	YieldFarming,
	Arbitrage,
	Bridging,
	Liquidation,
	Governance,
	Transfer,
	Unknown,
}

// Valid reports whether l is a member of the enumeration.
func Valid(l Label) bool {
	for _, known := range All {
		if l == known {
			return true
		}
	}
	return false
}
