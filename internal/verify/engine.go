// Package verify re-derives a product's authenticity verdict from stored
// data, the ledger and the content store.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/content"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/ledger"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/metadata"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/signing"
	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"go.uber.org/zap"
)

// Status is a terminal verdict.
type Status string

const (
	StatusGenuine  Status = "genuine"
	StatusTampered Status = "tampered"
	StatusInvalid  Status = "invalid"
)

const (
	MsgNotFound      = "Product not found or invalid token ID"
	MsgInvalidToken  = "Invalid verification token"
	MsgLedgerFailed  = "Failed to fetch ledger data"
	MsgContentFailed = "Failed to fetch content metadata"
	MsgVerified      = "Product verified successfully"
	MsgTampered      = "Product metadata has been tampered with"
)

// Products looks up products and their custody history.
type Products interface {
	GetProductByRecordID(ctx context.Context, recordID int64) (*model.Product, error)
	ListEvents(ctx context.Context, productID string) ([]model.TrackingEvent, error)
}

// Attestations reads notarized records.
type Attestations interface {
	Fetch(ctx context.Context, recordID int64, mode ledger.Mode) (*ledger.Attestation, error)
}

// Contents reads stored snapshots.
type Contents interface {
	Get(ctx context.Context, id string) ([]byte, error)
}

// ProductSummary is the product section of a verdict.
type ProductSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	BatchID      string `json:"batch_id"`
	Status       string `json:"status"`
	RecordID     string `json:"nft_token_id"`
}

// HistoryEntry is one custody event in a verdict.
type HistoryEntry struct {
	Action    string `json:"action"`
	ActorRole string `json:"actor_role"`
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
	Notes     string `json:"notes"`
}

// Modes tells which variant of each collaborator backed the product.
type Modes struct {
	Token   signing.TokenMode `json:"token"`
	Ledger  ledger.Mode       `json:"ledger"`
	Content content.Mode      `json:"content"`
}

// Result is a verification verdict. It is always terminal.
type Result struct {
	Authentic bool            `json:"authentic"`
	Status    Status          `json:"status"`
	Product   *ProductSummary `json:"product,omitempty"`
	History   []HistoryEntry  `json:"supply_chain_history,omitempty"`
	Message   string          `json:"message"`
	Modes     *Modes          `json:"modes,omitempty"`
}

// Engine runs the verification state machine.
type Engine struct {
	products Products
	ledger   Attestations
	content  Contents
	signer   signing.Signer
	logger   *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(products Products, attestations Attestations, contents Contents, signer signing.Signer, logger *zap.Logger) *Engine {
	return &Engine{
		products: products,
		ledger:   attestations,
		content:  contents,
		signer:   signer,
		logger:   logger,
	}
}

// Verify checks token against the product minted as recordID. It never
// returns an error: every failure resolves to an invalid or tampered verdict.
func (e *Engine) Verify(ctx context.Context, recordID int64, token string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Verification panicked", zap.Int64("record_id", recordID), zap.Any("panic", r))
			res = invalid(fmt.Sprintf("Verification failed: %v", r))
		}
		prometheus.RecordVerification(string(res.Status))
	}()

	res, err := e.verify(ctx, recordID, token)
	if err != nil {
		e.logger.Error("Verification failed", zap.Int64("record_id", recordID), zap.Error(err))
		return invalid(fmt.Sprintf("Verification failed: %v", err))
	}
	return res
}

func (e *Engine) verify(ctx context.Context, recordID int64, token string) (Result, error) {
	product, err := e.products.GetProductByRecordID(ctx, recordID)
	if err != nil {
		e.logger.Info("Verification for unknown record", zap.Int64("record_id", recordID), zap.Error(err))
		return invalid(MsgNotFound), nil
	}

	msg := signing.Message(product.SerialNumber, product.BatchID, product.ContentID, product.MetadataHash)
	ok, err := e.signer.Check(token, msg, product.VerificationToken)
	if err != nil {
		return invalid(fmt.Sprintf("Token validation failed: %v", err)), nil
	}
	if !ok {
		return invalid(MsgInvalidToken), nil
	}

	modes := &Modes{
		Token:   signing.TokenMode(product.TokenMode),
		Ledger:  ledger.Mode(product.LedgerMode),
		Content: content.Mode(product.ContentMode),
	}

	att, err := e.ledger.Fetch(ctx, recordID, modes.Ledger)
	if err != nil && modes.Ledger == ledger.ModeDegraded && errors.Is(err, ledger.ErrNotFound) {
		e.logger.Info("Local attestation missing, rebuilding from stored product", zap.Int64("record_id", recordID))
		att, err = attestationOf(product), nil
	}
	if err != nil {
		e.logger.Warn("Ledger fetch failed", zap.Int64("record_id", recordID), zap.Error(err))
		res := invalid(MsgLedgerFailed)
		res.Modes = modes
		return res, nil
	}

	events, err := e.products.ListEvents(ctx, product.ID)
	if err != nil {
		return Result{}, fmt.Errorf("list events: %w", err)
	}

	raw, err := e.content.Get(ctx, att.ContentID)
	if err != nil && modes.Content == content.ModeDegraded && errors.Is(err, content.ErrNotFound) {
		if snap, ok := storedSnapshot(events, att.ContentID); ok {
			e.logger.Info("Local content missing, using stored snapshot", zap.String("content_id", att.ContentID))
			raw, err = snap, nil
		}
	}
	if err != nil {
		e.logger.Warn("Content fetch failed", zap.String("content_id", att.ContentID), zap.Error(err))
		return Result{Status: StatusTampered, Message: MsgContentFailed, Modes: modes}, nil
	}

	authentic := false
	if digest, err := metadata.Rehash(raw); err == nil {
		authentic = sameDigest(digest, att.MetadataHash)
	} else {
		e.logger.Warn("Stored content is not a metadata object", zap.String("content_id", att.ContentID), zap.Error(err))
	}

	res := Result{
		Authentic: authentic,
		Status:    StatusTampered,
		Message:   MsgTampered,
		Product:   summarize(product, recordID),
		History:   history(events),
		Modes:     modes,
	}
	if authentic {
		res.Status = StatusGenuine
		res.Message = MsgVerified
	}
	return res, nil
}

// attestationOf rebuilds the attestation of a product minted on the local
// ledger from its stored row.
func attestationOf(p *model.Product) *ledger.Attestation {
	return &ledger.Attestation{
		Name:              p.Name,
		Description:       p.Description,
		SerialNumber:      p.SerialNumber,
		BatchID:           p.BatchID,
		ManufacturingDate: p.ManufacturingDate,
		ContentID:         p.ContentID,
		MetadataHash:      p.MetadataHash,
		CreatedAt:         p.CreatedAt,
	}
}

// storedSnapshot returns the snapshot persisted with the event that produced
// contentID. Locally assigned ids are derived from the bytes, so a snapshot
// that no longer derives contentID is rejected.
func storedSnapshot(events []model.TrackingEvent, contentID string) ([]byte, bool) {
	for _, ev := range events {
		if ev.NewContentID != contentID || len(ev.Snapshot) == 0 {
			continue
		}
		if metadata.FallbackID(ev.Snapshot) == contentID {
			return []byte(ev.Snapshot), true
		}
	}
	return nil, false
}

// sameDigest compares hex digests ignoring case and a 0x prefix.
func sameDigest(a, b string) bool {
	return normalizeDigest(a) == normalizeDigest(b)
}

func normalizeDigest(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return strings.ToLower(s)
}

func invalid(msg string) Result {
	return Result{Status: StatusInvalid, Message: msg}
}

func summarize(p *model.Product, recordID int64) *ProductSummary {
	status := p.Status
	if status == "" {
		status = model.ActionManufactured
	}
	return &ProductSummary{
		ID:           p.ID,
		Name:         p.Name,
		SerialNumber: p.SerialNumber,
		BatchID:      p.BatchID,
		Status:       status,
		RecordID:     strconv.FormatInt(recordID, 10),
	}
}

func history(events []model.TrackingEvent) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(events))
	for _, ev := range events {
		out = append(out, HistoryEntry{
			Action:    ev.Action,
			ActorRole: ev.Role,
			Location:  ev.Location,
			Timestamp: metadata.FormatTimestamp(ev.Timestamp),
			Notes:     ev.Notes,
		})
	}
	return out
}
