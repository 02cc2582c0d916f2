// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/domain/cart"
	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/sagaline/ecommerce-backend/internal/domain/notification"
	"github.com/sagaline/ecommerce-backend/internal/domain/order"
	"github.com/sagaline/ecommerce-backend/internal/domain/payment"
	"github.com/sagaline/ecommerce-backend/internal/domain/product"
	"github.com/sagaline/ecommerce-backend/internal/domain/search"
	"github.com/sagaline/ecommerce-backend/internal/domain/user"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database/migration"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database/mysql"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database/postgres"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/database/redis"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/messaging/kafka"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/messaging/rabbitmq"
	"github.com/sagaline/ecommerce-backend/internal/infrastructure/search/elasticsearch"
	"github.com/sagaline/ecommerce-backend/internal/interfaces/http"
	"github.com/sagaline/ecommerce-backend/internal/interfaces/http/handlers"
	"github.com/sagaline/ecommerce-backend/internal/interfaces/http/routes"
	"github.com/sagaline/ecommerce-backend/internal/interfaces/websocket"
	"github.com/sagaline/ecommerce-backend/internal/pkg/auth"
	"github.com/sagaline/ecommerce-backend/internal/pkg/email"
	"github.com/sagaline/ecommerce-backend/internal/pkg/logger"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/sagaline/ecommerce-backend/internal/pkg/pdf"
	"github.com/sirupsen/logrus"
)

// consumer is a broker subscription feeding the notification handler
type consumer interface {
	Run(ctx context.Context) error
}

// publisher is a broker producer the emitter writes through
type publisher interface {
	events.Publisher
	Close() error
}

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited with error")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("starting")

	sink := metrics.NewPrometheus("sagaline", log)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Health(); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	passwords := auth.NewPasswordManager(cfg.Security.BcryptCost)
	tokens := auth.NewJWTManager(cfg.JWT, cfg.App.Name)

	m := migration.NewMigration(db.GetDB(), cfg.Database.Driver, log)
	if err := m.RunAutoMigrations(); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	if err := m.CreateIndexes(); err != nil {
		log.WithError(err).Warn("index creation failed")
	}
	if cfg.IsDevelopment() {
		if err := m.SeedInitialData(passwords); err != nil {
			log.WithError(err).Warn("data seeding failed")
		}
	}

	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub, err := newPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	if pub != nil {
		defer pub.Close()
	}
	emitter := events.NewEmitter(pub, sink, log, cfg.Messaging.PublishTimeout)

	engine, err := newSearchEngine(ctx, cfg, db, log)
	if err != nil {
		return err
	}

	gdb := db.GetDB()
	tx := database.NewTransactor(gdb)
	productRepo := product.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)

	searchService := search.NewService(engine, productRepo, sink, log)
	productService := product.NewService(productRepo, redisClient, searchService, cfg.Cache.ProductTTL, sink, log)
	cartService := cart.NewService(cartRepo, productService, tx, log)
	orderService := order.NewService(order.NewRepository(gdb), cartRepo, tx, emitter, sink, log)
	userService := user.NewService(user.NewRepository(gdb), tx, passwords, tokens, emitter, sink, log)
	paymentService := payment.NewService(payment.NewRepository(gdb), orderService,
		payment.NewMockGateway(cfg.Payment.Provider), emitter, cfg.Payment.Currency, sink, log)

	mailer, err := email.NewEmailService(cfg.External.Email, log)
	if err != nil {
		return err
	}

	hub := websocket.NewHub(log)
	defer hub.Close()

	if cfg.Messaging.ConsumerEnabled {
		handler := notification.NewHandler(hub, mailer, userService, orderService, sink, log)
		sub, err := newConsumer(cfg, pub, handler, log)
		if err != nil {
			return err
		}
		if sub != nil {
			go func() {
				if err := sub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.WithError(err).Error("event consumer stopped")
				}
			}()
		}
	}

	server := http.NewServer(http.Dependencies{
		Config:  cfg,
		Logger:  log,
		Metrics: sink,
		Tokens:  tokens,
		Handlers: routes.Handlers{
			Auth:          handlers.NewAuthHandler(userService),
			Products:      handlers.NewProductHandler(productService),
			Search:        handlers.NewSearchHandler(searchService),
			Cart:          handlers.NewCartHandler(cartService),
			Orders:        handlers.NewOrderHandler(orderService),
			Invoices:      handlers.NewInvoiceHandler(orderService, pdf.NewService(cfg.Company, cfg.Payment.Currency)),
			Payments:      handlers.NewPaymentHandler(paymentService),
			UserAdmin:     handlers.NewUserAdminHandler(userService),
			Notifications: websocket.NewHandler(hub, tokens, cfg.Security.CORSAllowedOrigins, log).Serve,
		},
		RateCounter:    redisClient,
		MetricsHandler: sink.Handler(),
		Checks: map[string]http.HealthCheck{
			"database": func(context.Context) error { return db.Health() },
			"redis":    redisClient.Health,
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("failed to shutdown HTTP server gracefully")
	}
	if err := emitter.Close(shutdownCtx); err != nil {
		log.WithError(err).Warn("pending events were not flushed")
	}

	log.Info("server shutdown completed")
	return nil
}

func openDatabase(cfg *config.Config) (*database.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		return mysql.NewConnection(cfg)
	default:
		return postgres.NewConnection(cfg)
	}
}

// newPublisher returns nil when no broker is configured
func newPublisher(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (publisher, error) {
	switch cfg.Messaging.Broker {
	case config.BrokerKafka:
		client := kafka.NewClient(cfg.Messaging.KafkaBrokers)
		if !client.Enabled() {
			log.Warn("no kafka brokers configured, events will not be published")
			return nil, nil
		}
		if cfg.Messaging.EnsureTopics {
			topics, err := kafka.LoadTopics(cfg.Messaging.TopicsFile)
			if err != nil {
				log.WithError(err).Warn("falling back to default topics")
				topics = kafka.DefaultTopics()
			}
			if err := client.EnsureTopics(ctx, topics); err != nil {
				log.WithError(err).Warn("failed to ensure kafka topics")
			}
		}
		return kafka.NewPublisher(client), nil
	case config.BrokerRabbitMQ:
		rabbit, err := rabbitmq.NewRabbitMQ(cfg.Messaging)
		if err != nil {
			return nil, err
		}
		return rabbit, nil
	default:
		log.Warn("messaging disabled, events will not be published")
		return nil, nil
	}
}

// newConsumer returns nil when no broker is configured. A RabbitMQ consumer
// shares the publisher's connection.
func newConsumer(cfg *config.Config, pub publisher, handler events.Handler, log logrus.FieldLogger) (consumer, error) {
	switch cfg.Messaging.Broker {
	case config.BrokerKafka:
		client := kafka.NewClient(cfg.Messaging.KafkaBrokers)
		if !client.Enabled() {
			return nil, nil
		}
		return kafka.NewConsumer(client, cfg.Messaging.ConsumerGroup, events.AllTopics, handler, log), nil
	case config.BrokerRabbitMQ:
		rabbit, ok := pub.(*rabbitmq.RabbitMQ)
		if !ok {
			return nil, errors.New("rabbitmq consumer needs a rabbitmq connection")
		}
		return rabbitmq.NewConsumer(rabbit, cfg.Messaging.RabbitQueue, events.AllTopics, handler, log), nil
	default:
		return nil, nil
	}
}

func newSearchEngine(ctx context.Context, cfg *config.Config, db *database.DB, log logrus.FieldLogger) (search.Engine, error) {
	if cfg.Search.Provider != config.SearchElasticsearch {
		return search.NewDatabaseEngine(db.GetDB()), nil
	}

	engine, err := elasticsearch.NewEngine(cfg.Search, log)
	if err != nil {
		return nil, err
	}
	if err := engine.EnsureIndex(ctx); err != nil {
		log.WithError(err).Warn("elasticsearch index not ready, falling back to database search")
		return search.NewDatabaseEngine(db.GetDB()), nil
	}
	return engine, nil
}
