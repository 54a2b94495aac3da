package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/tracking"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateTrackingEvent records a custody event
func (h *Handler) CreateTrackingEvent(c echo.Context) error {
	log := logger.FromContext(c)

	var req tracking.Input
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid tracking event request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.ProductID == "" || req.Action == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id and action are required"})
	}

	rec, err := h.Chain.Record(c.Request().Context(), req)
	if errors.Is(err, tracking.ErrProductNotFound) {
		log.Warn("Tracking event for unknown product", zap.String("product_id", req.ProductID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}
	if err != nil {
		log.Error("Failed to create tracking event", zap.String("product_id", req.ProductID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create tracking event: " + err.Error()})
	}

	log.Info("Tracking event recorded",
		zap.String("product_id", req.ProductID),
		zap.String("event_id", rec.EventID),
		zap.String("action", req.Action),
		zap.Bool("forked", rec.Forked))

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"event_id":     rec.EventID,
		"new_cid":      rec.NewContentID,
		"content_mode": rec.ContentMode,
		"message":      fmt.Sprintf("Tracking event '%s' recorded successfully", req.Action),
	})
}

// ListProductEvents returns a product's custody history, oldest first
func (h *Handler) ListProductEvents(c echo.Context) error {
	log := logger.FromContext(c)
	productID := c.Param("product_id")

	events, err := h.Chain.History(c.Request().Context(), productID)
	if errors.Is(err, tracking.ErrProductNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}
	if err != nil {
		log.Error("Failed to fetch tracking events", zap.String("product_id", productID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch tracking events: " + err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// ListRecentEvents returns the most recent events across all products
func (h *Handler) ListRecentEvents(c echo.Context) error {
	log := logger.FromContext(c)

	limit := tracking.DefaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > tracking.DefaultRecentLimit {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("limit must be between 1 and %d", tracking.DefaultRecentLimit)})
		}
		limit = n
	}

	events, err := h.Chain.Recent(c.Request().Context(), limit)
	if err != nil {
		log.Error("Failed to fetch tracking events", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch tracking events: " + err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// ListForks reports content ids of a product that more than one event
// chained from
func (h *Handler) ListForks(c echo.Context) error {
	log := logger.FromContext(c)
	productID := c.Param("product_id")

	forks, err := h.Chain.Forks(c.Request().Context(), productID)
	if errors.Is(err, tracking.ErrProductNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}
	if err != nil {
		log.Error("Failed to compute forks", zap.String("product_id", productID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch tracking events: " + err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"product_id": productID, "forks": forks})
}
