package handler

import (
	"errors"
	"net/http"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/service"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateInvoice stores an invoice with a server-computed risk score. A
// risk_score field in the body is ignored.
func (h *Handler) CreateInvoice(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.CreateInvoiceInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid invoice request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	inv, err := h.Invoices.Create(c.Request().Context(), req)
	if errors.Is(err, service.ErrInvalidInput) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err != nil {
		log.Error("Failed to store invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to store invoice"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"invoice_id": inv.ID,
		"risk_score": inv.RiskScore,
		"message":    "Invoice stored successfully",
	})
}

// ListInvoices returns every invoice
func (h *Handler) ListInvoices(c echo.Context) error {
	log := logger.FromContext(c)

	invoices, err := h.Invoices.List(c.Request().Context())
	if err != nil {
		log.Error("Failed to list invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve invoices"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invoices": invoices})
}

// SaveFunding replaces the funded-investment summary
func (h *Handler) SaveFunding(c echo.Context) error {
	log := logger.FromContext(c)

	var req model.FundingSummary
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid funding request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if err := h.Funding.Save(c.Request().Context(), req); err != nil {
		log.Error("Failed to save funding summary", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to save funding summary"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// GetFunding returns the funded-investment summary or its zero state
func (h *Handler) GetFunding(c echo.Context) error {
	log := logger.FromContext(c)

	summary, err := h.Funding.Get(c.Request().Context())
	if err != nil {
		log.Error("Failed to load funding summary", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load funding summary"})
	}
	return c.JSON(http.StatusOK, summary)
}
