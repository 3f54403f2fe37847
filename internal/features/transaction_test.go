package features

import (
	"encoding/json"
	"testing"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    Amount
		wantErr bool
	}{
		{"number", `123`, 123, false},
		{"string number", `"456"`, 456, false},
		{"empty string", `""`, 0, false},
		{"null", `null`, 0, false},
		{"float", `1.5e3`, 1500, false},
		{"string float", `"99.9"`, 99, false},
		{"garbage", `"abc"`, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var a Amount
			err := json.Unmarshal([]byte(tc.input), &a)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a != tc.want {
				t.Errorf("amount = %d, want %d", a, tc.want)
			}
		})
	}
}

func TestTransaction_DecodeParsedForm(t *testing.T) {
	raw := `{
		"signature": "5abc",
		"instructions": [
			{"program": "spl-token", "parsed": {"type": "transfer", "info": {"mint": "mintA", "amount": "1000"}}},
			{"programId": "11111111111111111111111111111111"}
		],
		"accounts": ["w1", "w2"],
		"fee": 5000
	}`

	var tx Transaction
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if tx.Signature != "5abc" || tx.Fee != 5000 || len(tx.Accounts) != 2 {
		t.Errorf("unexpected envelope fields: %+v", tx)
	}
	if len(tx.Instructions) != 2 {
		t.Fatalf("instruction count = %d, want 2", len(tx.Instructions))
	}
	if !tx.Instructions[0].IsTransfer() {
		t.Error("first instruction should be a transfer")
	}
	if tx.Instructions[0].Parsed.Info.Amount != 1000 {
		t.Errorf("amount = %d, want 1000", tx.Instructions[0].Parsed.Info.Amount)
	}
	if tx.Instructions[1].IsTransfer() {
		t.Error("raw instruction without parsed payload must not be a transfer")
	}
}
