package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
)

func newProduct(recordID int64) *model.Product {
	return &model.Product{
		Name:           "Widget",
		SerialNumber:   fmt.Sprintf("SN-%d", recordID),
		ContentID:      fmt.Sprintf("cid-%d", recordID),
		LedgerRecordID: recordID,
		Status:         model.ActionManufactured,
	}
}

func TestMemoryStoreCreateProduct(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	founded := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := newProduct(7)
	ev := &model.TrackingEvent{Action: model.ActionManufactured, Timestamp: founded}
	if err := s.CreateProduct(ctx, p, ev); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.ID == "" || ev.ProductID != p.ID || ev.ID == "" {
		t.Fatalf("ids not assigned: product=%q event=%+v", p.ID, ev)
	}

	got, err := s.GetProductByRecordID(ctx, 7)
	if err != nil {
		t.Fatalf("GetProductByRecordID: %v", err)
	}
	if got.ID != p.ID {
		t.Fatalf("got %q, want %q", got.ID, p.ID)
	}

	if ok, _ := s.RecordIDExists(ctx, 7); !ok {
		t.Fatal("record id 7 should be taken")
	}
	if ok, _ := s.RecordIDExists(ctx, 8); ok {
		t.Fatal("record id 8 should be free")
	}

	if err := s.CreateProduct(ctx, newProduct(7), nil); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate record id: err = %v", err)
	}
	if _, err := s.GetProduct(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing product: err = %v", err)
	}

	ptrs, _ := s.ListPointers(ctx, p.ID)
	if len(ptrs) != 1 || ptrs[0].EventID != ev.ID {
		t.Fatalf("pointers = %+v", ptrs)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := newProduct(1)
	if err := s.CreateProduct(ctx, p, nil); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetProduct(ctx, p.ID)
	got.Status = "mutated"

	again, _ := s.GetProduct(ctx, p.ID)
	if again.Status != model.ActionManufactured {
		t.Fatalf("stored product was mutated through a returned copy: %q", again.Status)
	}
}

func TestMemoryStoreListProductsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []int64{30, 10, 20} {
		if err := s.CreateProduct(ctx, newProduct(id), nil); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var order []int64
	for _, p := range list {
		order = append(order, p.LedgerRecordID)
	}
	if fmt.Sprint(order) != "[30 10 20]" {
		t.Fatalf("order = %v", order)
	}
}

func TestMemoryStoreAppendEvent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := newProduct(1)
	if err := s.CreateProduct(ctx, p, nil); err != nil {
		t.Fatal(err)
	}

	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	replaced, err := s.AppendEvent(ctx, &model.TrackingEvent{ProductID: p.ID, Action: model.ActionShipped, Timestamp: at},
		model.ProductUpdate{Status: model.ActionShipped, CurrentLocation: "Port", LastUpdated: at, LatestContentID: "cid-2"})
	if err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if replaced != "cid-1" {
		t.Fatalf("replaced = %q, want founding cid", replaced)
	}

	replaced, err = s.AppendEvent(ctx, &model.TrackingEvent{ProductID: p.ID, Action: model.ActionReceived, Timestamp: at.Add(time.Hour)},
		model.ProductUpdate{Status: model.ActionReceived, CurrentLocation: "Store", LastUpdated: at.Add(time.Hour), LatestContentID: "cid-3"})
	if err != nil {
		t.Fatal(err)
	}
	if replaced != "cid-2" {
		t.Fatalf("replaced = %q, want cid-2", replaced)
	}

	got, _ := s.GetProduct(ctx, p.ID)
	if got.Status != model.ActionReceived || got.CurrentLocation != "Store" || got.LatestContentID != "cid-3" {
		t.Fatalf("product not updated: %+v", got)
	}
	if got.LastUpdated == nil || !got.LastUpdated.Equal(at.Add(time.Hour)) {
		t.Fatalf("last updated = %v", got.LastUpdated)
	}

	if _, err := s.AppendEvent(ctx, &model.TrackingEvent{ProductID: "missing"}, model.ProductUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing product: err = %v", err)
	}
}

func TestMemoryStoreEventOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := newProduct(1)
	_ = s.CreateProduct(ctx, p, nil)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	// appended out of timestamp order
	for _, offset := range []int{2, 0, 1} {
		at := base.Add(time.Duration(offset) * time.Hour)
		_, err := s.AppendEvent(ctx, &model.TrackingEvent{ProductID: p.ID, Action: model.ActionShipped, Notes: fmt.Sprint(offset), Timestamp: at},
			model.ProductUpdate{Status: model.ActionShipped, LastUpdated: at})
		if err != nil {
			t.Fatal(err)
		}
	}

	events, _ := s.ListEvents(ctx, p.ID)
	var asc []string
	for _, ev := range events {
		asc = append(asc, ev.Notes)
	}
	if fmt.Sprint(asc) != "[0 1 2]" {
		t.Fatalf("ascending = %v", asc)
	}

	recent, _ := s.RecentEvents(ctx, 2)
	var desc []string
	for _, ev := range recent {
		desc = append(desc, ev.Notes)
	}
	if fmt.Sprint(desc) != "[2 1]" {
		t.Fatalf("recent = %v", desc)
	}
}

func TestMemoryStoreCounts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, b := newProduct(1), newProduct(2)
	_ = s.CreateProduct(ctx, a, nil)
	_ = s.CreateProduct(ctx, b, nil)

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []model.TrackingEvent{
		{ProductID: a.ID, Action: model.ActionShipped, Location: "Hub A", Actor: "d1", Timestamp: old},
		{ProductID: a.ID, Action: model.ActionReceived, Location: "Store", Actor: "r1", Timestamp: now},
		{ProductID: b.ID, Action: model.ActionShipped, Location: "Hub B", Actor: "d1", Timestamp: now},
	}
	for i := range events {
		ev := events[i]
		if _, err := s.AppendEvent(ctx, &ev, model.ProductUpdate{Status: ev.Action, LastUpdated: ev.Timestamp}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		field EventField
		f     EventFilter
		want  int64
	}{
		{"locations", FieldLocation, EventFilter{}, 3},
		{"shipped products", FieldProductID, EventFilter{Action: model.ActionShipped}, 2},
		{"recent actors", FieldActor, EventFilter{Since: now}, 2},
		{"shipped actors", FieldActor, EventFilter{Action: model.ActionShipped}, 1},
		{"old locations", FieldLocation, EventFilter{Until: now}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.CountDistinct(ctx, tt.field, tt.f)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}

	if n, _ := s.CountEvents(ctx, EventFilter{Since: now}); n != 2 {
		t.Fatalf("events since = %d", n)
	}
	if n, _ := s.CountProductsByStatus(ctx, model.ActionShipped); n != 1 {
		t.Fatalf("shipped products = %d", n)
	}
	byAction, _ := s.ListEventsByAction(ctx, model.ActionShipped, model.ActionReceived)
	if len(byAction) != 3 || byAction[0].Timestamp != old {
		t.Fatalf("by action = %+v", byAction)
	}
}

func TestMemoryStoreFundingAndUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.GetFunding(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty funding: err = %v", err)
	}
	_ = s.ReplaceFunding(ctx, &model.FundingSummary{TotalInvested: 5, Status: "active"})
	_ = s.ReplaceFunding(ctx, &model.FundingSummary{TotalInvested: 9, Status: "active"})
	got, err := s.GetFunding(ctx)
	if err != nil || got.TotalInvested != 9 {
		t.Fatalf("funding = %+v, %v", got, err)
	}

	if err := s.CreateUser(ctx, &model.User{Email: "a@example.com", Password: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateUser(ctx, &model.User{Email: "A@example.com", Password: "y"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate email: err = %v", err)
	}
	u, err := s.GetUserByEmail(ctx, "a@example.com")
	if err != nil || u.Password != "x" {
		t.Fatalf("user = %+v, %v", u, err)
	}
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := newProduct(1)
	_ = s.CreateProduct(ctx, p, nil)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cid := fmt.Sprintf("cid-w%d", i)
			_, err := s.AppendEvent(ctx, &model.TrackingEvent{ProductID: p.ID, Action: model.ActionShipped, Timestamp: time.Now()},
				model.ProductUpdate{Status: model.ActionShipped, LastUpdated: time.Now(), LatestContentID: cid})
			if err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	events, _ := s.ListEvents(ctx, p.ID)
	ptrs, _ := s.ListPointers(ctx, p.ID)
	if len(events) != writers || len(ptrs) != writers {
		t.Fatalf("events=%d pointers=%d, want %d", len(events), len(ptrs), writers)
	}
}
