// Package registry holds the sets of known on-chain program identifiers used to
// flag DEX, bridge, and lending involvement. Both feature extraction and
// training-data labeling read the same registry instance so that the flags a
// model is trained against can never drift from the flags computed at inference
// time.
package registry

// Registry groups known program identifiers by protocol category. It is
// immutable after construction and safe to share across goroutines.
type Registry struct {
	dex     map[string]struct{}
	bridge  map[string]struct{}
	lending map[string]struct{}
}

// New builds a registry from explicit program-ID lists.
func New(dex, bridge, lending []string) *Registry {
	return &Registry{
		dex:     toSet(dex),
		bridge:  toSet(bridge),
		lending: toSet(lending),
	}
}

// Default returns the registry of mainnet programs the service ships with.
func Default() *Registry {
	return New(
		[]string{
			"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8", // Raydium
			"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc",  // Orca
			"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4",  // Jupiter
			"JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB",  // Jupiter v4
		},
		[]string{
			"worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth", // Wormhole
			"DZnkkTmCiFWfYTfT41X3Rd1kDgozqzxWaHqsw6W4x2oe", // Portal
		},
		[]string{
			"So1endDq2YkqhipRh3WViPa8hdiSpxWy6z3Z6tMCpAo", // Solend
			"MFv2hWf31Z9kbCa1snEPYctwafyhdvnV7FZnsebVacA", // MarginFi
		},
	)
}

// IsDEX reports whether the address is a known DEX program.
func (r *Registry) IsDEX(addr string) bool {
	_, ok := r.dex[addr]
	return ok
}

// IsBridge reports whether the address is a known bridge program.
func (r *Registry) IsBridge(addr string) bool {
	_, ok := r.bridge[addr]
	return ok
}

// IsLending reports whether the address is a known lending program.
func (r *Registry) IsLending(addr string) bool {
	_, ok := r.lending[addr]
	return ok
}

// AnyDEX reports whether any of the addresses is a known DEX program.
func (r *Registry) AnyDEX(addrs []string) bool {
	return anyIn(r.dex, addrs)
}

// AnyBridge reports whether any of the addresses is a known bridge program.
func (r *Registry) AnyBridge(addrs []string) bool {
	return anyIn(r.bridge, addrs)
}

// AnyLending reports whether any of the addresses is a known lending program.
func (r *Registry) AnyLending(addrs []string) bool {
	return anyIn(r.lending, addrs)
}

func toSet(addrs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		set[a] = struct{}{}
	}
	return set
}

func anyIn(set map[string]struct{}, addrs []string) bool {
	for _, a := range addrs {
		if _, ok := set[a]; ok {
			return true
		}
	}
	return false
}
