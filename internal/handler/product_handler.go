package handler

import (
	"errors"
	"net/http"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/service"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateProduct notarizes a new product
func (h *Handler) CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.CreateProductInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	log.Info("Product creation request",
		zap.String("name", req.Name),
		zap.String("serial_number", req.SerialNumber),
		zap.String("batch_id", req.BatchID))

	res, err := h.Products.Create(c.Request().Context(), req)
	if errors.Is(err, service.ErrInvalidInput) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err != nil {
		log.Error("Failed to create product", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create product: " + err.Error()})
	}

	return c.JSON(http.StatusOK, res)
}

// ListProducts returns every product in insertion order
func (h *Handler) ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	products, err := h.Products.List(c.Request().Context())
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve products"})
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, echo.Map{"products": products})
}
