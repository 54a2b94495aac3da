package content

import (
	"context"
	"errors"

	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"go.uber.org/zap"
)

// FallbackStore writes to a primary store once and, if that fails, keeps the
// content in a LocalStore under its derived id. A nil primary means the
// service runs in degraded mode permanently.
type FallbackStore struct {
	primary Store
	local   *LocalStore
	logger  *zap.Logger
}

// NewFallbackStore wires a primary store (may be nil) with a local fallback.
func NewFallbackStore(primary Store, local *LocalStore, logger *zap.Logger) *FallbackStore {
	if local == nil {
		local = NewLocalStore()
	}
	return &FallbackStore{primary: primary, local: local, logger: logger}
}

// Put stores data and reports which store assigned the id.
func (s *FallbackStore) Put(ctx context.Context, data []byte) (PutResult, error) {
	if s.primary != nil {
		id, err := s.primary.Put(ctx, data)
		if err == nil {
			return PutResult{ID: id, Mode: ModeLive}, nil
		}
		s.logger.Warn("Content store upload failed, using local fallback", zap.Error(err))
	}

	id, err := s.local.Put(ctx, data)
	if err != nil {
		return PutResult{}, err
	}
	prometheus.RecordDegraded("content")
	return PutResult{ID: id, Mode: ModeDegraded}, nil
}

// Get returns the bytes for id from the local fallback or the primary store.
func (s *FallbackStore) Get(ctx context.Context, id string) ([]byte, error) {
	b, err := s.local.Get(ctx, id)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if s.primary == nil {
		return nil, ErrNotFound
	}
	return s.primary.Get(ctx, id)
}
