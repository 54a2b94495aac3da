package model

import (
	"time"

	"gorm.io/datatypes"
)

// Standard custody actions. Action is an open set; these are the ones the
// service itself emits or reports on.
const (
	ActionManufactured = "manufactured"
	ActionShipped      = "shipped"
	ActionReceived     = "received"
	ActionSold         = "sold"
)

// TrackingEvent is one link of a product's custody chain
type TrackingEvent struct {
	ID                string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProductID         string         `json:"product_id" gorm:"type:varchar(36);index:idx_events_product_ts,priority:1;not null"`
	Action            string         `json:"action" gorm:"type:varchar(64);index;not null"`
	Actor             string         `json:"actor" gorm:"type:varchar(255)"`
	Role              string         `json:"role" gorm:"type:varchar(64)"`
	Location          string         `json:"location" gorm:"type:varchar(255)"`
	Notes             string         `json:"notes" gorm:"type:text"`
	TxHash            string         `json:"tx_hash" gorm:"type:varchar(128)"`
	Timestamp         time.Time      `json:"timestamp" gorm:"index:idx_events_product_ts,priority:2;index"`
	PreviousContentID *string        `json:"previous_cid" gorm:"type:varchar(128);index"`
	NewContentID      string         `json:"new_cid" gorm:"type:varchar(128)"`
	MetadataHash      string         `json:"metadata_hash" gorm:"type:char(64)"`
	ContentMode       string         `json:"content_mode" gorm:"type:varchar(16)"`
	Snapshot          datatypes.JSON `json:"snapshot,omitempty" gorm:"type:json"`
}

// TrackingPointer is the lightweight per-product index entry appended with
// every event
type TrackingPointer struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	ProductID string    `json:"-" gorm:"type:varchar(36);index;not null"`
	EventID   string    `json:"event_id" gorm:"type:varchar(36);not null"`
	Action    string    `json:"action" gorm:"type:varchar(64)"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductUpdate carries the denormalized fields written with an event
type ProductUpdate struct {
	Status          string
	CurrentLocation string
	LastUpdated     time.Time
	LatestContentID string
}
