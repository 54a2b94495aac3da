package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used when DB_DRIVER=memory and in
// tests. A single RWMutex makes every method atomic.
type MemoryStore struct {
	mu         sync.RWMutex
	products   []*model.Product
	byID       map[string]*model.Product
	byRecordID map[int64]*model.Product
	events     []model.TrackingEvent
	pointers   []model.TrackingPointer
	invoices   []model.Invoice
	funding    *model.FundingSummary
	users      map[string]model.User
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*model.Product),
		byRecordID: make(map[int64]*model.Product),
		users:      make(map[string]model.User),
	}
}

func (s *MemoryStore) CreateProduct(ctx context.Context, p *model.Product, founding *model.TrackingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := s.byID[p.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.byRecordID[p.LedgerRecordID]; ok {
		return ErrDuplicate
	}

	cp := *p
	s.products = append(s.products, &cp)
	s.byID[cp.ID] = &cp
	s.byRecordID[cp.LedgerRecordID] = &cp

	if founding != nil {
		founding.ProductID = p.ID
		if founding.ID == "" {
			founding.ID = uuid.NewString()
		}
		s.events = append(s.events, *founding)
		s.pointers = append(s.pointers, model.TrackingPointer{
			ID:        uint(len(s.pointers) + 1),
			ProductID: p.ID,
			EventID:   founding.ID,
			Action:    founding.Action,
			Timestamp: founding.Timestamp,
		})
	}
	return nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) GetProductByRecordID(ctx context.Context, recordID int64) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byRecordID[recordID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) RecordIDExists(ctx context.Context, recordID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byRecordID[recordID]
	return ok, nil
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *MemoryStore) CountProducts(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}

func (s *MemoryStore) CountProductsByStatus(ctx context.Context, status string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, p := range s.products {
		if p.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AppendEvent(ctx context.Context, ev *model.TrackingEvent, upd model.ProductUpdate) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[ev.ProductID]
	if !ok {
		return "", ErrNotFound
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	replaced := p.CurrentContentID()

	s.events = append(s.events, *ev)
	s.pointers = append(s.pointers, model.TrackingPointer{
		ID:        uint(len(s.pointers) + 1),
		ProductID: ev.ProductID,
		EventID:   ev.ID,
		Action:    ev.Action,
		Timestamp: ev.Timestamp,
	})

	lastUpdated := upd.LastUpdated
	p.Status = upd.Status
	p.CurrentLocation = upd.CurrentLocation
	p.LastUpdated = &lastUpdated
	p.LatestContentID = upd.LatestContentID
	return replaced, nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, productID string) ([]model.TrackingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TrackingEvent
	for _, ev := range s.events {
		if ev.ProductID == productID {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) RecentEvents(ctx context.Context, limit int) ([]model.TrackingEvent, error) {
	s.mu.RLock()
	out := append([]model.TrackingEvent(nil), s.events...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListPointers(ctx context.Context, productID string) ([]model.TrackingPointer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TrackingPointer
	for _, ptr := range s.pointers {
		if ptr.ProductID == productID {
			out = append(out, ptr)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListEventsByAction(ctx context.Context, actions ...string) ([]model.TrackingEvent, error) {
	want := make(map[string]bool, len(actions))
	for _, a := range actions {
		want[a] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TrackingEvent
	for _, ev := range s.events {
		if want[ev.Action] {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) matching(f EventFilter) []model.TrackingEvent {
	var out []model.TrackingEvent
	for _, ev := range s.events {
		if f.Action != "" && ev.Action != f.Action {
			continue
		}
		if !f.Since.IsZero() && ev.Timestamp.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && !ev.Timestamp.Before(f.Until) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (s *MemoryStore) CountEvents(ctx context.Context, f EventFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matching(f))), nil
}

func (s *MemoryStore) CountDistinct(ctx context.Context, field EventField, f EventFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	for _, ev := range s.matching(f) {
		switch field {
		case FieldLocation:
			seen[ev.Location] = true
		case FieldProductID:
			seen[ev.ProductID] = true
		case FieldActor:
			seen[ev.Actor] = true
		}
	}
	return int64(len(seen)), nil
}

func (s *MemoryStore) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	s.invoices = append(s.invoices, *inv)
	return nil
}

func (s *MemoryStore) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Invoice(nil), s.invoices...), nil
}

func (s *MemoryStore) ReplaceFunding(ctx context.Context, summary *model.FundingSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *summary
	cp.ID = 1
	s.funding = &cp
	return nil
}

func (s *MemoryStore) GetFunding(ctx context.Context) (*model.FundingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.funding == nil {
		return nil, ErrNotFound
	}
	cp := *s.funding
	return &cp, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.users[key]; ok {
		return ErrDuplicate
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.users[key] = *u
	return nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
