package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPLedger is a client for a notarization service exposing
// POST /attestations and GET /attestations/{id}.
type HTTPLedger struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type recordResponse struct {
	RecordID int64 `json:"record_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPLedger creates a new notarization client
func NewHTTPLedger(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *HTTPLedger {
	return &HTTPLedger{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

// Record submits an attestation and returns the ledger-assigned id.
func (l *HTTPLedger) Record(ctx context.Context, att Attestation) (int64, error) {
	payload, err := json.Marshal(att)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL+"/attestations", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := l.do(req)
	if err != nil {
		return 0, err
	}

	var resp recordResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		l.Logger.Error("Failed to parse ledger record response", zap.Error(err))
		return 0, fmt.Errorf("%w: invalid record response: %v", ErrUnavailable, err)
	}

	l.Logger.Info("Attestation recorded on ledger",
		zap.Int64("record_id", resp.RecordID),
		zap.String("serial_number", att.SerialNumber))
	return resp.RecordID, nil
}

// Fetch reads an attestation by id.
func (l *HTTPLedger) Fetch(ctx context.Context, recordID int64) (*Attestation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/attestations/%d", l.BaseURL, recordID), nil)
	if err != nil {
		return nil, err
	}

	body, err := l.do(req)
	if err != nil {
		return nil, err
	}

	var att Attestation
	if err := json.Unmarshal(body, &att); err != nil {
		return nil, fmt.Errorf("%w: invalid attestation: %v", ErrUnavailable, err)
	}
	return &att, nil
}

func (l *HTTPLedger) do(req *http.Request) ([]byte, error) {
	if l.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.APIKey)
	}

	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		l.Logger.Warn("Ledger request failed", zap.String("path", req.URL.Path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)
		l.Logger.Warn("Ledger returned error status",
			zap.String("path", req.URL.Path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("error", errResp.Error))
		return nil, fmt.Errorf("%w: status %d %s", ErrUnavailable, resp.StatusCode, errResp.Error)
	}
	return body, nil
}
