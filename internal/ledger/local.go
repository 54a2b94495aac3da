package ledger

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LocalIDSpace bounds the pseudo-random record ids handed out locally.
const LocalIDSpace = 1_000_000

// RecordIndex reports record ids already assigned to stored products.
type RecordIndex interface {
	RecordIDExists(ctx context.Context, recordID int64) (bool, error)
}

// LocalLedger is an in-memory append-only ledger. Ids are pseudo-random
// placeholders, not cryptographically meaningful. With a non-empty basePath
// attestations are also written to disk.
type LocalLedger struct {
	mu       sync.RWMutex
	records  map[int64]Attestation
	basePath string
	index    RecordIndex
	nextID   func() (int64, error)
}

// NewLocalLedger creates a memory-only LocalLedger.
func NewLocalLedger() *LocalLedger {
	return &LocalLedger{
		records: make(map[int64]Attestation),
		nextID:  randomID,
	}
}

// NewLocalLedgerWithPath creates a LocalLedger persisting under basePath.
func NewLocalLedgerWithPath(basePath string) (*LocalLedger, error) {
	l := NewLocalLedger()
	l.basePath = strings.TrimSuffix(basePath, string(os.PathSeparator))
	if l.basePath != "" {
		if err := os.MkdirAll(l.basePath, 0755); err != nil {
			return nil, fmt.Errorf("ledger: create %s: %w", l.basePath, err)
		}
	}
	return l, nil
}

// WithIndex makes Record skip ids that idx reports as taken, including ids
// issued before the ledger's own records were lost.
func (l *LocalLedger) WithIndex(idx RecordIndex) *LocalLedger {
	l.index = idx
	return l
}

func randomID() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(LocalIDSpace))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

// Record appends att under a fresh id.
func (l *LocalLedger) Record(ctx context.Context, att Attestation) (int64, error) {
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for attempt := 0; attempt < 64; attempt++ {
		id, err := l.nextID()
		if err != nil {
			return 0, err
		}
		if l.exists(id) {
			continue
		}
		if l.index != nil {
			taken, err := l.index.RecordIDExists(ctx, id)
			if err != nil {
				return 0, fmt.Errorf("ledger: check record id: %w", err)
			}
			if taken {
				continue
			}
		}
		l.records[id] = att
		if l.basePath != "" {
			b, _ := json.MarshalIndent(att, "", "  ")
			if err := os.WriteFile(l.path(id), b, 0644); err != nil {
				delete(l.records, id)
				return 0, err
			}
		}
		return id, nil
	}
	return 0, errors.New("ledger: local id space exhausted")
}

// Fetch returns a copy of the attestation recorded under id.
func (l *LocalLedger) Fetch(ctx context.Context, recordID int64) (*Attestation, error) {
	l.mu.RLock()
	att, ok := l.records[recordID]
	l.mu.RUnlock()
	if ok {
		return &att, nil
	}
	if l.basePath == "" {
		return nil, ErrNotFound
	}

	b, err := os.ReadFile(l.path(recordID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(b, &att); err != nil {
		return nil, fmt.Errorf("ledger: invalid record file %d: %w", recordID, err)
	}
	l.mu.Lock()
	l.records[recordID] = att
	l.mu.Unlock()
	return &att, nil
}

// exists must be called with l.mu held.
func (l *LocalLedger) exists(id int64) bool {
	if _, ok := l.records[id]; ok {
		return true
	}
	if l.basePath == "" {
		return false
	}
	_, err := os.Stat(l.path(id))
	return err == nil
}

func (l *LocalLedger) path(id int64) string {
	return filepath.Join(l.basePath, strconv.FormatInt(id, 10)+".json")
}
