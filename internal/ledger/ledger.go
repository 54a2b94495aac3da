// Package ledger notarizes product attestations on an append-only ledger.
package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("ledger: record not found")
	ErrUnavailable = errors.New("ledger: unavailable")
)

// Attestation is the immutable record notarized for a product at mint time.
type Attestation struct {
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	SerialNumber      string    `json:"serial_number"`
	BatchID           string    `json:"batch_id"`
	ManufacturingDate string    `json:"manufacturing_date"`
	ContentID         string    `json:"content_id"`
	MetadataHash      string    `json:"metadata_hash"`
	Minter            string    `json:"minter,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Ledger is an append-only attestation oracle.
type Ledger interface {
	Record(ctx context.Context, att Attestation) (int64, error)
	Fetch(ctx context.Context, recordID int64) (*Attestation, error)
}

// Mode reports which ledger holds a record.
type Mode string

const (
	ModeLive     Mode = "live"
	ModeDegraded Mode = "degraded"
)

// MintResult is the outcome of Notary.Mint.
type MintResult struct {
	RecordID int64
	Mode     Mode
}

// Degraded reports whether the record lives on the local ledger.
func (r MintResult) Degraded() bool { return r.Mode == ModeDegraded }
