package ledger

import (
	"context"

	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"go.uber.org/zap"
)

// Notary mints attestations with a single attempt on the primary ledger and
// falls back to the local ledger when that attempt fails. A nil primary
// means the service is unconfigured and always runs degraded.
type Notary struct {
	primary Ledger
	local   *LocalLedger
	logger  *zap.Logger
}

// NewNotary wires a primary ledger (may be nil) with a local fallback.
func NewNotary(primary Ledger, local *LocalLedger, logger *zap.Logger) *Notary {
	if local == nil {
		local = NewLocalLedger()
	}
	return &Notary{primary: primary, local: local, logger: logger}
}

// Mint records exactly one attestation.
func (n *Notary) Mint(ctx context.Context, att Attestation) (MintResult, error) {
	if n.primary != nil {
		id, err := n.primary.Record(ctx, att)
		if err == nil {
			return MintResult{RecordID: id, Mode: ModeLive}, nil
		}
		n.logger.Warn("Ledger minting failed, using local ledger",
			zap.String("serial_number", att.SerialNumber),
			zap.Error(err))
	} else {
		n.logger.Debug("Ledger not configured, using local ledger")
	}

	id, err := n.local.Record(ctx, att)
	if err != nil {
		return MintResult{}, err
	}
	prometheus.RecordDegraded("ledger")
	return MintResult{RecordID: id, Mode: ModeDegraded}, nil
}

// Fetch reads a record from the ledger it was minted on.
func (n *Notary) Fetch(ctx context.Context, recordID int64, mode Mode) (*Attestation, error) {
	if mode == ModeDegraded || n.primary == nil {
		return n.local.Fetch(ctx, recordID)
	}
	return n.primary.Fetch(ctx, recordID)
}
