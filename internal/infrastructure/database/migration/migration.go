// internal/infrastructure/database/migration/migration.go
package migration

import (
	"errors"
	"fmt"

	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/domain/cart"
	"github.com/sagaline/ecommerce-backend/internal/domain/order"
	"github.com/sagaline/ecommerce-backend/internal/domain/payment"
	"github.com/sagaline/ecommerce-backend/internal/domain/product"
	"github.com/sagaline/ecommerce-backend/internal/domain/user"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Development seed account
const (
	SeedAdminEmail    = "admin@sagaline.local"
	SeedAdminPassword = "admin1234"
)

// PasswordHasher hashes seed passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	driver string
	logger logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, driver string, logger logrus.FieldLogger) *Migration {
	return &Migration{
		db:     db,
		driver: driver,
		logger: logger,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.RefreshToken{},
		&product.Category{},
		&product.Product{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&payment.Payment{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("running database auto-migrations")

	for _, model := range Models() {
		m.logger.Debugf("migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates composite indexes that struct tags cannot express. Failures are logged and skipped.
func (m *Migration) CreateIndexes() error {
	if m.driver != config.DriverPostgres {
		m.logger.WithField("driver", m.driver).Debug("skipping extra indexes")
		return nil
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_active_created ON products(is_active, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_revoked ON refresh_tokens(user_id, revoked)",
		"CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)",
	}

	successCount, failCount := 0, 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.logger.WithFields(logrus.Fields{"created": successCount, "failed": failCount}).Info("indexes ensured")
	return nil
}

// SeedInitialData inserts development categories, products and an admin account
func (m *Migration) SeedInitialData(hasher PasswordHasher) error {
	categories, err := m.seedCategories()
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := m.seedProducts(categories); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := m.seedAdminUser(hasher); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	m.logger.Info("initial data seeded")
	return nil
}

func (m *Migration) seedCategories() (map[string]product.Category, error) {
	seeds := []product.Category{
		{Name: "Electronics", Description: "Electronic devices, gadgets, and accessories"},
		{Name: "Clothing", Description: "Fashion, apparel, and accessories"},
		{Name: "Books", Description: "Books, eBooks, and educational materials"},
		{Name: "Home & Garden", Description: "Home improvement, furniture, and garden supplies"},
	}

	byName := make(map[string]product.Category, len(seeds))
	for _, category := range seeds {
		var existing product.Category
		err := m.db.Where("name = ?", category.Name).First(&existing).Error
		switch {
		case err == nil:
			byName[existing.Name] = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := m.db.Create(&category).Error; err != nil {
				return nil, err
			}
			m.logger.WithField("category", category.Name).Info("created category")
			byName[category.Name] = category
		default:
			return nil, err
		}
	}
	return byName, nil
}

func (m *Migration) seedProducts(categories map[string]product.Category) error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		m.logger.Debug("products already present, skipping product seed")
		return nil
	}

	sku := func(s string) *string { return &s }
	seeds := []product.Product{
		{Name: "Galaxy Book Laptop", Description: "14 inch ultrabook with all-day battery", Price: decimal.NewFromInt(1500000), SKU: sku("LAP-001"), Brand: "Samsung", IsActive: true, Categories: []product.Category{categories["Electronics"]}},
		{Name: "Wireless Earbuds", Description: "Noise cancelling wireless earbuds", Price: decimal.NewFromInt(199000), SKU: sku("AUD-001"), Brand: "Samsung", IsActive: true, Categories: []product.Category{categories["Electronics"]}},
		{Name: "Cotton T-Shirt", Description: "Plain cotton crew neck t-shirt", Price: decimal.NewFromInt(19900), SKU: sku("CLO-001"), Brand: "Basic", IsActive: true, Categories: []product.Category{categories["Clothing"]}},
		{Name: "The Go Programming Language", Description: "Introduction to Go", Price: decimal.NewFromInt(45000), SKU: sku("BOK-001"), Brand: "Addison-Wesley", IsActive: true, Categories: []product.Category{categories["Books"]}},
	}

	for i := range seeds {
		if err := m.db.Create(&seeds[i]).Error; err != nil {
			return err
		}
	}
	m.logger.WithField("count", len(seeds)).Info("created sample products")
	return nil
}

func (m *Migration) seedAdminUser(hasher PasswordHasher) error {
	var existing user.User
	err := m.db.Where("email = ?", SeedAdminEmail).First(&existing).Error
	if err == nil {
		m.logger.WithField("user_id", existing.ID).Debug("admin user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := hasher.HashPassword(SeedAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := user.User{
		Email:     SeedAdminEmail,
		Password:  hashed,
		FirstName: "Admin",
		LastName:  "User",
		Role:      user.RoleAdmin,
		IsActive:  true,
	}
	if err := m.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	m.logger.WithField("email", SeedAdminEmail).Info("created admin user")
	return nil
}

// DropAllTables removes every table, dependents first
func (m *Migration) DropAllTables() error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop %T: %w", models[i], err)
		}
	}
	return m.db.Migrator().DropTable("product_categories")
}
