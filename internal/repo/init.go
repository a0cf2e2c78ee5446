package repo

import (
	"github.com/KNICEX/trading-sim/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Order{},
		&entity.RiskSettings{},
		&entity.Wallet{},
		&entity.Transaction{},
	)
}
