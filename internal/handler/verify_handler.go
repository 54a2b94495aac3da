package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/verify"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// recordID accepts the ledger record id as a JSON number or a numeric string,
// since QR payloads carry it as a number and forms send strings.
type recordID struct {
	value int64
	valid bool
}

func (r *recordID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return nil
	}
	r.value, r.valid = n, true
	return nil
}

type verifyRequest struct {
	TokenID           recordID `json:"token_id"`
	VerificationToken string   `json:"verification_token"`
}

// Verify re-derives a product's authenticity verdict. Every outcome is a
// verdict with status 200; only an unreadable body is a client error.
func (h *Handler) Verify(c echo.Context) error {
	log := logger.FromContext(c)

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid verification request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if !req.TokenID.valid {
		return c.JSON(http.StatusOK, verify.Result{Status: verify.StatusInvalid, Message: verify.MsgNotFound})
	}

	res := h.Verifier.Verify(c.Request().Context(), req.TokenID.value, req.VerificationToken)
	log.Info("Verification completed",
		zap.Int64("record_id", req.TokenID.value),
		zap.String("status", string(res.Status)))
	return c.JSON(http.StatusOK, res)
}
