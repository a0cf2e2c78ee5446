package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskSettings are created lazily per user with defaults.
type RiskSettings struct {
	UserId                 string          `gorm:"primaryKey"`
	MaxPositionSizePercent decimal.Decimal `gorm:"type:numeric"`
	DailyLossLimit         decimal.Decimal `gorm:"type:numeric"`
	DailyLossUsed          decimal.Decimal `gorm:"type:numeric"`
	LastResetDate          time.Time
	UpdatedAt              time.Time
}
