package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// IPFSStore talks to the HTTP RPC API of an IPFS node.
type IPFSStore struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// NewIPFSStore creates a client for the node at baseURL (e.g. http://localhost:5001).
func NewIPFSStore(baseURL string, timeout time.Duration, logger *zap.Logger) *IPFSStore {
	return &IPFSStore{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

// Put adds data to IPFS and returns its CID.
func (s *IPFSStore) Put(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "metadata.json")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/v0/add?pin=true", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	respBody, err := s.do(req)
	if err != nil {
		return "", err
	}

	var added addResponse
	if err := json.Unmarshal(respBody, &added); err != nil {
		s.Logger.Error("Failed to parse IPFS add response", zap.Error(err))
		return "", fmt.Errorf("%w: invalid add response: %v", ErrUnavailable, err)
	}
	if added.Hash == "" {
		return "", fmt.Errorf("%w: add response without hash", ErrUnavailable)
	}

	s.Logger.Debug("Content added to IPFS", zap.String("cid", added.Hash), zap.Int("bytes", len(data)))
	return added.Hash, nil
}

// Get reads the bytes stored under cid.
func (s *IPFSStore) Get(ctx context.Context, cid string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/api/v0/cat?arg=%s", s.BaseURL, url.QueryEscape(cid))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return s.do(req)
}

func (s *IPFSStore) do(req *http.Request) ([]byte, error) {
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		s.Logger.Warn("IPFS request failed", zap.String("path", req.URL.Path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		s.Logger.Warn("IPFS request returned error status",
			zap.String("path", req.URL.Path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)))
		if resp.StatusCode == http.StatusNotFound || strings.Contains(string(body), "not found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return body, nil
}
