package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/metadata"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/repository"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/risk"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateInvoiceInput is an invoice submitted for underwriting. Any risk score
// the client sends is not part of the input.
type CreateInvoiceInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Buyer       string          `json:"buyer"`
	DueDate     string          `json:"due_date"`
	Description string          `json:"description"`
	TxHash      *string         `json:"tx_hash"`
}

// InvoiceService scores and stores invoices.
type InvoiceService struct {
	repo   repository.InvoiceRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewInvoiceService(repo repository.InvoiceRepository, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create computes the risk score and stores the invoice.
func (s *InvoiceService) Create(ctx context.Context, in CreateInvoiceInput) (*model.Invoice, error) {
	if in.Buyer == "" {
		return nil, fmt.Errorf("%w: buyer is required", ErrInvalidInput)
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	now := s.now()
	score := risk.Score(in.Amount.InexactFloat64(), in.Buyer, in.DueDate, in.Description, now)

	inv := &model.Invoice{
		Amount:      in.Amount,
		Buyer:       in.Buyer,
		DueDate:     metadata.NormalizeDate(in.DueDate),
		Description: in.Description,
		RiskScore:   score,
		TxHash:      in.TxHash,
		CreatedAt:   now,
	}
	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}

	prometheus.ObserveRiskScore(score)
	prometheus.RecordProductOperation("create_invoice")
	logger.FromCtx(ctx, s.logger).Info("Invoice stored",
		zap.String("invoice_id", inv.ID),
		zap.String("buyer", inv.Buyer),
		zap.Int("risk_score", score))
	return inv, nil
}

// List returns every stored invoice.
func (s *InvoiceService) List(ctx context.Context) ([]model.Invoice, error) {
	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	if invoices == nil {
		invoices = []model.Invoice{}
	}
	return invoices, nil
}
