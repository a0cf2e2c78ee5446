package ioc

import (
	"github.com/KNICEX/trading-sim/internal/repo"
	"github.com/spf13/viper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the sqlite store named by db.dsn and migrates the
// schema. An empty dsn returns nil; callers fall back to the in-memory
// repos.
func InitDB() *gorm.DB {
	type Config struct {
		DSN string `mapstructure:"dsn"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("db", &cfg); err != nil {
		panic(err)
	}
	if cfg.DSN == "" {
		return nil
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	if err = repo.InitTables(db); err != nil {
		panic(err)
	}
	return db
}
