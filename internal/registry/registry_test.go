package registry

import "testing"

func TestDefaultRegistryMembership(t *testing.T) {
	reg := Default()

	if !reg.IsDEX("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8") {
		t.Error("Raydium should be a DEX program")
	}
	if !reg.IsBridge("worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth") {
		t.Error("Wormhole should be a bridge program")
	}
	if !reg.IsLending("MFv2hWf31Z9kbCa1snEPYctwafyhdvnV7FZnsebVacA") {
		t.Error("MarginFi should be a lending program")
	}

	// Categories are disjoint.
	if reg.IsBridge("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8") {
		t.Error("Raydium must not be a bridge program")
	}
	if reg.IsDEX("unknownAddress") {
		t.Error("unknown address must not match any set")
	}
}

func TestAnyMembership(t *testing.T) {
	reg := New([]string{"dex1"}, []string{"bridge1"}, nil)

	if !reg.AnyDEX([]string{"w1", "dex1", "w2"}) {
		t.Error("AnyDEX should find dex1")
	}
	if reg.AnyDEX([]string{"w1", "w2"}) {
		t.Error("AnyDEX should not match plain wallets")
	}
	if reg.AnyLending([]string{"anything"}) {
		t.Error("empty lending set matches nothing")
	}
	if reg.AnyBridge(nil) {
		t.Error("nil account list matches nothing")
	}
}
