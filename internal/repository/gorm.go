package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *GormStore) CreateProduct(ctx context.Context, p *model.Product, founding *model.TrackingEvent) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if founding == nil {
			return nil
		}
		founding.ProductID = p.ID
		if founding.ID == "" {
			founding.ID = uuid.NewString()
		}
		if err := tx.Create(founding).Error; err != nil {
			return err
		}
		return tx.Create(&model.TrackingPointer{
			ProductID: p.ID,
			EventID:   founding.ID,
			Action:    founding.Action,
			Timestamp: founding.Timestamp,
		}).Error
	}))
}

func (s *GormStore) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var p model.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) GetProductByRecordID(ctx context.Context, recordID int64) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var p model.Product
	if err := s.db.WithContext(ctx).First(&p, "ledger_record_id = ?", recordID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) RecordIDExists(ctx context.Context, recordID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Product{}).Where("ledger_record_id = ?", recordID).Count(&n).Error
	return n > 0, translate(err)
}

func (s *GormStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var products []model.Product
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&products).Error
	return products, translate(err)
}

func (s *GormStore) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, translate(err)
}

func (s *GormStore) CountProductsByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Product{}).Where("status = ?", status).Count(&n).Error
	return n, translate(err)
}

func (s *GormStore) AppendEvent(ctx context.Context, ev *model.TrackingEvent, upd model.ProductUpdate) (string, error) {
	defer prometheus.TrackDBOperation("append_event")(time.Now())
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	var replaced string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Product
		if err := lockForUpdate(tx).
			Select("id", "content_id", "latest_content_id").
			First(&p, "id = ?", ev.ProductID).Error; err != nil {
			return err
		}
		replaced = p.CurrentContentID()

		if err := tx.Create(ev).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.TrackingPointer{
			ProductID: ev.ProductID,
			EventID:   ev.ID,
			Action:    ev.Action,
			Timestamp: ev.Timestamp,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Product{}).Where("id = ?", ev.ProductID).Updates(map[string]any{
			"status":            upd.Status,
			"current_location":  upd.CurrentLocation,
			"last_updated":      upd.LastUpdated,
			"latest_content_id": upd.LatestContentID,
		}).Error
	})
	if err != nil {
		return "", translate(err)
	}
	return replaced, nil
}

// lockForUpdate adds SELECT ... FOR UPDATE on dialects that support row
// locks. sqlite serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *GormStore) ListEvents(ctx context.Context, productID string) ([]model.TrackingEvent, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var events []model.TrackingEvent
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("timestamp ASC").
		Find(&events).Error
	return events, translate(err)
}

func (s *GormStore) RecentEvents(ctx context.Context, limit int) ([]model.TrackingEvent, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var events []model.TrackingEvent
	err := s.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&events).Error
	return events, translate(err)
}

func (s *GormStore) ListPointers(ctx context.Context, productID string) ([]model.TrackingPointer, error) {
	var pointers []model.TrackingPointer
	err := s.db.WithContext(ctx).Where("product_id = ?", productID).Order("id ASC").Find(&pointers).Error
	return pointers, translate(err)
}

func (s *GormStore) ListEventsByAction(ctx context.Context, actions ...string) ([]model.TrackingEvent, error) {
	var events []model.TrackingEvent
	err := s.db.WithContext(ctx).Where("action IN ?", actions).Order("timestamp ASC").Find(&events).Error
	return events, translate(err)
}

func (s *GormStore) eventQuery(ctx context.Context, f EventFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.TrackingEvent{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		q = q.Where("timestamp < ?", f.Until)
	}
	return q
}

func (s *GormStore) CountEvents(ctx context.Context, f EventFilter) (int64, error) {
	var n int64
	err := s.eventQuery(ctx, f).Count(&n).Error
	return n, translate(err)
}

func (s *GormStore) CountDistinct(ctx context.Context, field EventField, f EventFilter) (int64, error) {
	var n int64
	err := s.eventQuery(ctx, f).Distinct(string(field)).Count(&n).Error
	return n, translate(err)
}

func (s *GormStore) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(inv).Error)
}

func (s *GormStore) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&invoices).Error
	return invoices, translate(err)
}

func (s *GormStore) ReplaceFunding(ctx context.Context, summary *model.FundingSummary) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.FundingSummary{}).Error; err != nil {
			return err
		}
		summary.ID = 0
		return tx.Create(summary).Error
	}))
}

func (s *GormStore) GetFunding(ctx context.Context) (*model.FundingSummary, error) {
	var summary model.FundingSummary
	if err := s.db.WithContext(ctx).Order("updated_at DESC").First(&summary).Error; err != nil {
		return nil, translate(err)
	}
	return &summary, nil
}

func (s *GormStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
