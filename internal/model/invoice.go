package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is an underwriting request; RiskScore is always computed server-side
type Invoice struct {
	ID          string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null"`
	Buyer       string          `json:"buyer" gorm:"type:varchar(255);index;not null"`
	DueDate     string          `json:"due_date" gorm:"type:varchar(64)"`
	Description string          `json:"description" gorm:"type:text"`
	RiskScore   int             `json:"risk_score" gorm:"not null"`
	TxHash      *string         `json:"tx_hash" gorm:"type:varchar(128)"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
}

// FundingSummary is the single active investment summary
type FundingSummary struct {
	ID                uint      `json:"-" gorm:"primaryKey"`
	TotalInvested     float64   `json:"total_invested"`
	ActiveInvestments int       `json:"active_investments"`
	Returns           float64   `json:"returns"`
	AvailableBalance  float64   `json:"available_balance"`
	Status            string    `json:"status" gorm:"type:varchar(32)"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DefaultFundingSummary is returned when nothing has been saved yet
func DefaultFundingSummary() FundingSummary {
	return FundingSummary{
		AvailableBalance: 10,
		Status:           "idle",
	}
}
