package training

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenflow-intent/internal/intent"
	"tokenflow-intent/internal/registry"
)

type fakeSource struct {
	rows []Row
	err  error
}

func (f *fakeSource) FetchSuccessful(ctx context.Context, limit int) ([]Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

const (
	transferInstrJSON = `{"program":"spl-token","parsed":{"type":"transfer","info":{"mint":"mintA","amount":"100"}}}`
	bridgeAccount     = `worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth`
)

func structuredRow(instructions, accounts string, fee uint64) Row {
	return Row{
		Instructions: json.RawMessage(instructions),
		Accounts:     json.RawMessage(accounts),
		Fee:          fee,
	}
}

// stringEncodedRow wraps the payloads one extra level, the way older writers
// stored them.
func stringEncodedRow(instructions, accounts string, fee uint64) Row {
	encInstr, _ := json.Marshal(instructions)
	encAccounts, _ := json.Marshal(accounts)
	return Row{
		Instructions: json.RawMessage(encInstr),
		Accounts:     json.RawMessage(encAccounts),
		Fee:          fee,
	}
}

func TestCollect_LabelsAndFeatures(t *testing.T) {
	source := &fakeSource{rows: []Row{
		structuredRow(`[`+transferInstrJSON+`]`, `["w1","w2"]`, 5000),
		structuredRow(`[]`, `["`+bridgeAccount+`"]`, 7000),
	}}

	c := NewCollector(source, registry.Default(), 100)
	x, y, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, x, 2)
	require.Len(t, y, 2)

	assert.Equal(t, intent.Transfer, y[0], "lone transfer row labels as transfer")
	assert.Equal(t, intent.Bridging, y[1])

	assert.Len(t, x[0], 10)
	assert.Equal(t, 1.0, x[0][3], "transfer count")
	assert.Equal(t, 5000.0, x[0][2], "fee")
	assert.Equal(t, 1.0, x[1][6], "bridge flag")
}

func TestCollect_StringEncodedPayloadParity(t *testing.T) {
	instructions := `[` + transferInstrJSON + `,` + transferInstrJSON + `]`
	accounts := `["675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"]`

	structured := &fakeSource{rows: []Row{structuredRow(instructions, accounts, 9000)}}
	encoded := &fakeSource{rows: []Row{stringEncodedRow(instructions, accounts, 9000)}}

	reg := registry.Default()
	x1, y1, err := NewCollector(structured, reg, 100).Collect(context.Background())
	require.NoError(t, err)
	x2, y2, err := NewCollector(encoded, reg, 100).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, x1, x2, "string-encoded payloads must decode to identical features")
	assert.Equal(t, y1, y2)
	assert.Equal(t, intent.Trading, y1[0])
}

func TestCollect_SkipsUndecodableRows(t *testing.T) {
	source := &fakeSource{rows: []Row{
		structuredRow(`not json`, `["w1"]`, 1),
		structuredRow(`[]`, `["w1"]`, 2),
		structuredRow(`[]`, `{"bad":"shape"}`, 3),
	}}

	c := NewCollector(source, registry.Default(), 100)
	x, y, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, x, 1, "only the well-formed row survives")
	assert.Len(t, y, 1)
}

func TestCollect_RespectsRowLimit(t *testing.T) {
	rows := make([]Row, 20)
	for i := range rows {
		rows[i] = structuredRow(`[]`, `["w1"]`, uint64(i))
	}
	c := NewCollector(&fakeSource{rows: rows}, registry.Default(), 5)

	x, _, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, x, 5)
}

func TestCollect_EmptyPayloadsDefault(t *testing.T) {
	source := &fakeSource{rows: []Row{{Fee: 100}}}
	c := NewCollector(source, registry.Default(), 100)

	x, y, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, x, 1)
	assert.Equal(t, intent.Unknown, y[0])
	assert.Equal(t, 100.0, x[0][2])
}
