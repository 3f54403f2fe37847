// Package training turns unlabeled historical transactions into a labeled
// training set via weak supervision, and orchestrates background model
// training runs.
package training

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"tokenflow-intent/internal/features"
	"tokenflow-intent/internal/heuristic"
	"tokenflow-intent/internal/intent"
	"tokenflow-intent/internal/registry"
)

// Row is one stored transaction as the transaction store returns it.
// Instructions and Accounts may be native JSON arrays or JSON strings that
// themselves contain serialized arrays, depending on how the row was written.
type Row struct {
	Instructions json.RawMessage
	Accounts     json.RawMessage
	Fee          uint64
}

// TransactionSource is the external historical transaction store.
type TransactionSource interface {
	// FetchSuccessful returns up to limit successful transactions.
	FetchSuccessful(ctx context.Context, limit int) ([]Row, error)
}

// Collector assembles (features, labels) pairs from stored transactions.
// Features come from the extractor; labels come from the heuristic rule chain
// applied to the raw transaction, not to the extracted vector.
type Collector struct {
	source    TransactionSource
	extractor *features.Extractor
	reg       *registry.Registry
	rowLimit  int
}

// NewCollector creates a collector reading up to rowLimit rows per run.
func NewCollector(source TransactionSource, reg *registry.Registry, rowLimit int) *Collector {
	return &Collector{
		source:    source,
		extractor: features.NewExtractor(reg),
		reg:       reg,
		rowLimit:  rowLimit,
	}
}

// Collect fetches stored transactions and returns the feature matrix and
// auto-derived label vector. Rows whose payloads fail to decode are skipped,
// not fatal.
func (c *Collector) Collect(ctx context.Context) ([][]float64, []intent.Label, error) {
	rows, err := c.source.FetchSuccessful(ctx, c.rowLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch transactions: %w", err)
	}

	x := make([][]float64, 0, len(rows))
	y := make([]intent.Label, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		tx, err := decodeRow(row)
		if err != nil {
			skipped++
			log.Warn().Err(err).Msg("skipping undecodable transaction row")
			continue
		}

		x = append(x, c.extractor.Extract(tx).Floats())
		y = append(y, heuristic.AutoLabel(tx, c.reg))
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("kept", len(x)).Msg("some rows were not decodable")
	}
	return x, y, nil
}

func decodeRow(row Row) (features.Transaction, error) {
	tx := features.Transaction{Fee: row.Fee}

	if err := decodePayload(row.Instructions, &tx.Instructions); err != nil {
		return tx, fmt.Errorf("decode instructions: %w", err)
	}
	if err := decodePayload(row.Accounts, &tx.Accounts); err != nil {
		return tx, fmt.Errorf("decode accounts: %w", err)
	}
	return tx, nil
}

// decodePayload unmarshals data into out, unwrapping one level of string
// encoding when the payload was stored as a serialized JSON string.
func decodePayload(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return nil
	}
	trimmed := firstByte(data)
	if trimmed == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if inner == "" {
			return nil
		}
		return json.Unmarshal([]byte(inner), out)
	}
	return json.Unmarshal(data, out)
}

func firstByte(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
