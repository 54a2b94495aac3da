// Package service implements the boundary operations behind the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/content"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/ledger"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/metadata"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/repository"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/signing"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/verify"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ErrInvalidInput marks a request the caller must fix.
var ErrInvalidInput = errors.New("invalid input")

const (
	foundingActor    = "Manufacturer"
	foundingLocation = "Manufacturing Facility"
)

// Snapshots stores canonical metadata.
type Snapshots interface {
	Put(ctx context.Context, data []byte) (content.PutResult, error)
}

// Minter notarizes attestations.
type Minter interface {
	Mint(ctx context.Context, att ledger.Attestation) (ledger.MintResult, error)
}

// CreateProductInput is a new product as submitted by a manufacturer.
type CreateProductInput struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	SerialNumber      string `json:"serial_number"`
	BatchID           string `json:"batch_id"`
	ManufacturingDate string `json:"manufacturing_date"`
}

// QRPayload is the data a product's QR code encodes.
type QRPayload struct {
	TokenID           int64  `json:"tokenId"`
	VerificationToken string `json:"verificationToken"`
}

// CreateProductResult is returned by ProductService.Create.
type CreateProductResult struct {
	Success           bool         `json:"success"`
	ProductID         string       `json:"product_id"`
	ContentID         string       `json:"ipfs_cid"`
	RecordID          int64        `json:"nft_token_id"`
	MetadataHash      string       `json:"metadata_hash"`
	QRCode            string       `json:"qr_code"`
	VerificationToken string       `json:"verification_token"`
	Modes             verify.Modes `json:"modes"`
}

// ProductService creates and lists notarized products.
type ProductService struct {
	repo      repository.ProductRepository
	snapshots Snapshots
	minter    Minter
	signer    signing.Signer
	logger    *zap.Logger
	now       func() time.Time
}

// NewProductService creates a ProductService.
func NewProductService(repo repository.ProductRepository, snapshots Snapshots, minter Minter, signer signing.Signer, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		snapshots: snapshots,
		minter:    minter,
		signer:    signer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create canonicalizes the product metadata, stores it, mints one
// attestation, derives the verification token and persists the product with
// its founding manufactured event.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*CreateProductResult, error) {
	if in.Name == "" || in.SerialNumber == "" {
		return nil, fmt.Errorf("%w: name and serial_number are required", ErrInvalidInput)
	}
	log := logger.FromCtx(ctx, s.logger)

	at := s.now()
	mfgDate := metadata.NormalizeDate(in.ManufacturingDate)
	snap := metadata.ProductSnapshot(in.Name, in.Description, in.SerialNumber, in.BatchID, mfgDate, at)
	raw, hash, err := metadata.Hash(snap)
	if err != nil {
		return nil, fmt.Errorf("canonicalize metadata: %w", err)
	}

	stored, err := s.snapshots.Put(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("store metadata: %w", err)
	}

	minted, err := s.minter.Mint(ctx, ledger.Attestation{
		Name:              in.Name,
		Description:       in.Description,
		SerialNumber:      in.SerialNumber,
		BatchID:           in.BatchID,
		ManufacturingDate: mfgDate,
		ContentID:         stored.ID,
		MetadataHash:      hash,
		Minter:            s.signer.Address(),
		CreatedAt:         at,
	})
	if err != nil {
		return nil, fmt.Errorf("mint attestation: %w", err)
	}

	token, err := s.signer.Derive(signing.Message(in.SerialNumber, in.BatchID, stored.ID, hash))
	if err != nil {
		return nil, fmt.Errorf("derive verification token: %w", err)
	}

	qr, err := json.Marshal(QRPayload{TokenID: minted.RecordID, VerificationToken: token.Value})
	if err != nil {
		return nil, fmt.Errorf("encode qr payload: %w", err)
	}

	p := &model.Product{
		Name:              in.Name,
		Description:       in.Description,
		SerialNumber:      in.SerialNumber,
		BatchID:           in.BatchID,
		ManufacturingDate: mfgDate,
		ContentID:         stored.ID,
		ContentMode:       string(stored.Mode),
		MetadataHash:      hash,
		LedgerRecordID:    minted.RecordID,
		LedgerMode:        string(minted.Mode),
		VerificationToken: token.Value,
		TokenMode:         string(token.Mode),
		QRCode:            string(qr),
		Status:            model.ActionManufactured,
		CreatedAt:         at,
	}
	founding := &model.TrackingEvent{
		Action:       model.ActionManufactured,
		Actor:        foundingActor,
		Role:         foundingActor,
		Location:     foundingLocation,
		Notes:        fmt.Sprintf("Product manufactured with serial number %s", in.SerialNumber),
		Timestamp:    at,
		NewContentID: stored.ID,
		MetadataHash: hash,
		ContentMode:  string(stored.Mode),
		Snapshot:     datatypes.JSON(raw),
	}
	if err := s.repo.CreateProduct(ctx, p, founding); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	prometheus.RecordProductOperation("create_product")
	log.Info("Product created",
		zap.String("product_id", p.ID),
		zap.String("serial_number", p.SerialNumber),
		zap.Int64("record_id", minted.RecordID),
		zap.String("content_mode", string(stored.Mode)),
		zap.String("ledger_mode", string(minted.Mode)),
		zap.String("token_mode", string(token.Mode)))

	return &CreateProductResult{
		Success:           true,
		ProductID:         p.ID,
		ContentID:         stored.ID,
		RecordID:          minted.RecordID,
		MetadataHash:      hash,
		QRCode:            p.QRCode,
		VerificationToken: token.Value,
		Modes: verify.Modes{
			Token:   token.Mode,
			Ledger:  minted.Mode,
			Content: stored.Mode,
		},
	}, nil
}

// List returns every product in insertion order.
func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}
