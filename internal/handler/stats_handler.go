package handler

import (
	"net/http"

	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DistributorStats returns shipping figures
func (h *Handler) DistributorStats(c echo.Context) error {
	stats, err := h.Stats.Distributor(c.Request().Context())
	if err != nil {
		logger.FromContext(c).Error("Failed to compute distributor stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute stats"})
	}
	return c.JSON(http.StatusOK, stats)
}

// RetailerStats returns retail figures
func (h *Handler) RetailerStats(c echo.Context) error {
	stats, err := h.Stats.Retailer(c.Request().Context())
	if err != nil {
		logger.FromContext(c).Error("Failed to compute retailer stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute stats"})
	}
	return c.JSON(http.StatusOK, stats)
}
