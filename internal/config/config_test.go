package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, BrokerKafka, cfg.Messaging.Broker)
	assert.Equal(t, "order-notification-service", cfg.Messaging.ConsumerGroup)
	assert.Equal(t, 100, cfg.Security.RateLimitPerMinute)
	assert.Equal(t, 10*time.Minute, cfg.Cache.ProductTTL)
	assert.Equal(t, "KRW", cfg.Payment.Currency)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("MESSAGING_BROKER", "rabbitmq")
	t.Setenv("CACHE_PRODUCT_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, BrokerRabbitMQ, cfg.Messaging.Broker)
	assert.Equal(t, 90*time.Second, cfg.Cache.ProductTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSAllowedOrigins)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sagaline:sagaline@tcp(localhost:3306)/sagaline?charset=utf8mb4&parseTime=True&loc=UTC", cfg.GetDatabaseDSN())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "JWT_SECRET"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "DB_DRIVER"},
		{"unknown broker", func(c *Config) { c.Messaging.Broker = "nats" }, "MESSAGING_BROKER"},
		{"unknown search", func(c *Config) { c.Search.Provider = "solr" }, "SEARCH_PROVIDER"},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "APP_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "host=localhost port=5432 user=sagaline password=sagaline dbname=sagaline sslmode=disable", cfg.GetDatabaseDSN())
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}
