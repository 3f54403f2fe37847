package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// TokenProgramTag is the parsed-program tag the RPC layer assigns to SPL token
// instructions. Transfer detection keys off this tag, not the raw program ID.
const TokenProgramTag = "spl-token"

// Transaction is the raw record intent inference runs against. It is treated
// as immutable once decoded.
type Transaction struct {
	Signature    string        `json:"signature"`
	Instructions []Instruction `json:"instructions"`
	Accounts     []string      `json:"accounts"`
	Fee          uint64        `json:"fee"`
}

// Instruction is a single instruction within a transaction. The program
// identifier may arrive under either "program" (parsed RPC form) or
// "programId" (raw form) depending on provenance.
type Instruction struct {
	Program   string  `json:"program,omitempty"`
	ProgramID string  `json:"programId,omitempty"`
	Parsed    *Parsed `json:"parsed,omitempty"`
}

// Parsed is the optional decoded payload of an instruction.
type Parsed struct {
	Type string     `json:"type"`
	Info ParsedInfo `json:"info"`
}

// ParsedInfo carries the subset of parsed-instruction fields the extractor
// reads. Unknown keys are ignored.
type ParsedInfo struct {
	Mint   string `json:"mint"`
	Amount Amount `json:"amount"`
}

// Amount is a transfer amount that upstream encoders emit either as a JSON
// number or as a decimal string. It always coerces to an integer.
type Amount int64

// UnmarshalJSON accepts 123, "123", and null. Anything else is an error.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	s := string(data)
	if s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some encoders emit amounts as floats; truncate toward zero.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("parse amount %q: %w", s, err)
		}
		n = int64(f)
	}
	*a = Amount(n)
	return nil
}

// programKey returns the instruction's program identifier regardless of which
// field it arrived under.
func (in Instruction) programKey() string {
	if in.Program != "" {
		return in.Program
	}
	return in.ProgramID
}

// IsTransfer reports whether the instruction is an SPL token transfer. Only
// the parsed "program" tag qualifies; a matching raw program ID with no parsed
// payload does not.
func (in Instruction) IsTransfer() bool {
	if in.Program != TokenProgramTag || in.Parsed == nil {
		return false
	}
	return in.Parsed.Type == "transfer" || in.Parsed.Type == "transferChecked"
}
