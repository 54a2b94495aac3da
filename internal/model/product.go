package model

import (
	"time"
)

// Product is a notarized product and its denormalized custody state
type Product struct {
	ID                string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name              string `json:"product_name" gorm:"type:varchar(255);not null"`
	Description       string `json:"description" gorm:"type:text"`
	SerialNumber      string `json:"serial_number" gorm:"type:varchar(255);index;not null"`
	BatchID           string `json:"batch_id" gorm:"type:varchar(255);index"`
	ManufacturingDate string `json:"manufacturing_date" gorm:"type:varchar(64)"`

	// Founding provenance, never rewritten after creation
	ContentID         string `json:"ipfs_cid" gorm:"type:varchar(128);not null"`
	ContentMode       string `json:"content_mode" gorm:"type:varchar(16)"`
	MetadataHash      string `json:"metadata_hash" gorm:"type:char(64);not null"`
	LedgerRecordID    int64  `json:"nft_token_id" gorm:"uniqueIndex;not null"`
	LedgerMode        string `json:"ledger_mode" gorm:"type:varchar(16)"`
	VerificationToken string `json:"verification_token" gorm:"type:varchar(160)"`
	TokenMode         string `json:"token_mode" gorm:"type:varchar(16)"`
	QRCode            string `json:"qr_code" gorm:"type:text"`

	// Custody state updated by every tracking event
	Status          string     `json:"status" gorm:"type:varchar(64);default:'manufactured'"`
	CurrentLocation string     `json:"current_location,omitempty" gorm:"type:varchar(255)"`
	LastUpdated     *time.Time `json:"last_updated,omitempty"`
	LatestContentID string     `json:"latest_cid,omitempty" gorm:"type:varchar(128)"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// CurrentContentID is the head of the product's snapshot chain
func (p *Product) CurrentContentID() string {
	if p.LatestContentID != "" {
		return p.LatestContentID
	}
	return p.ContentID
}

// All lists every persisted model for migrations
func All() []any {
	return []any{
		&Product{},
		&TrackingEvent{},
		&TrackingPointer{},
		&Invoice{},
		&FundingSummary{},
		&User{},
	}
}
