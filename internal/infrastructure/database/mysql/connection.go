// internal/infrastructure/database/mysql/connection.go
package mysql

import (
	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database"
	"gorm.io/driver/mysql"
)

// NewConnection opens a pooled MySQL connection
func NewConnection(cfg *config.Config) (*database.DB, error) {
	return database.Open(mysql.New(mysql.Config{
		DSN:                       cfg.GetDatabaseDSN(),
		DefaultStringSize:         255,
		SkipInitializeWithVersion: false,
	}), cfg)
}
