// internal/infrastructure/database/postgres/connection.go
package postgres

import (
	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database"
	"gorm.io/driver/postgres"
)

// NewConnection opens a pooled PostgreSQL connection
func NewConnection(cfg *config.Config) (*database.DB, error) {
	return database.Open(postgres.Open(cfg.GetDatabaseDSN()), cfg)
}
