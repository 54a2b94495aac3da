// Package repository persists products, custody events, invoices, the funding
// summary and users.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
)

var (
	ErrNotFound  = errors.New("repository: not found")
	ErrDuplicate = errors.New("repository: duplicate")
)

// EventField names a tracking event column that can be counted distinctly.
type EventField string

const (
	FieldLocation  EventField = "location"
	FieldProductID EventField = "product_id"
	FieldActor     EventField = "actor"
)

// EventFilter narrows event counts. Zero values match everything. Since is
// inclusive and Until exclusive.
type EventFilter struct {
	Action string
	Since  time.Time
	Until  time.Time
}

// ProductRepository stores products.
type ProductRepository interface {
	// CreateProduct inserts the product together with its founding event.
	CreateProduct(ctx context.Context, p *model.Product, founding *model.TrackingEvent) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductByRecordID(ctx context.Context, recordID int64) (*model.Product, error)
	// RecordIDExists reports whether a product already holds recordID.
	RecordIDExists(ctx context.Context, recordID int64) (bool, error)
	// ListProducts returns products in insertion order.
	ListProducts(ctx context.Context) ([]model.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	CountProductsByStatus(ctx context.Context, status string) (int64, error)
}

// TrackingRepository stores custody events.
type TrackingRepository interface {
	// AppendEvent inserts the event and its index pointer and applies the
	// product update as one atomic operation. It returns the product's chain
	// head that the update replaced.
	AppendEvent(ctx context.Context, ev *model.TrackingEvent, upd model.ProductUpdate) (string, error)
	// ListEvents returns a product's events ascending by timestamp.
	ListEvents(ctx context.Context, productID string) ([]model.TrackingEvent, error)
	// RecentEvents returns at most limit events, most recent first.
	RecentEvents(ctx context.Context, limit int) ([]model.TrackingEvent, error)
	ListPointers(ctx context.Context, productID string) ([]model.TrackingPointer, error)
	ListEventsByAction(ctx context.Context, actions ...string) ([]model.TrackingEvent, error)
	CountEvents(ctx context.Context, f EventFilter) (int64, error)
	CountDistinct(ctx context.Context, field EventField, f EventFilter) (int64, error)
}

// InvoiceRepository stores invoices.
type InvoiceRepository interface {
	CreateInvoice(ctx context.Context, inv *model.Invoice) error
	ListInvoices(ctx context.Context) ([]model.Invoice, error)
}

// FundingRepository stores the single funding summary.
type FundingRepository interface {
	// ReplaceFunding removes any existing summary and stores s.
	ReplaceFunding(ctx context.Context, s *model.FundingSummary) error
	GetFunding(ctx context.Context) (*model.FundingSummary, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Store groups every repository behind one handle.
type Store interface {
	ProductRepository
	TrackingRepository
	InvoiceRepository
	FundingRepository
	UserRepository
}
