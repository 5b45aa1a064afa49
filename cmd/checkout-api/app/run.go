package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aq2208/gpos-checkout/configs"
	"github.com/aq2208/gpos-checkout/internal/adapter/cache"
	"github.com/aq2208/gpos-checkout/internal/adapter/http"
	"github.com/aq2208/gpos-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/gpos-checkout/internal/adapter/kafka"
	"github.com/aq2208/gpos-checkout/internal/adapter/observ"
	"github.com/aq2208/gpos-checkout/internal/adapter/queue"
	"github.com/aq2208/gpos-checkout/internal/adapter/repo"
	"github.com/aq2208/gpos-checkout/internal/logging"
	"github.com/aq2208/gpos-checkout/internal/usecase"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

// InitWithConfig wires every adapter. Background consumers stop when ctx is done.
func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	log := logging.New("app")
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// database
	db, err := openDB(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = db.Close() })

	// redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closers = append(closers, func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fail(fmt.Errorf("redis ping: %w", err))
	}

	saleRepo := repo.NewSQLSaleRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisCache(rdb, cfg.Cache.TTL)
	carts := cache.NewRedisCartStore(rdb, cfg.Cart.TTL)

	// rabbitmq: publisher + sale.completed consumer
	var pub usecase.SaleEventPublisher
	if cfg.Rabbit.Enabled {
		conn, err := amqp.Dial(cfg.Rabbit.URL)
		if err != nil {
			return fail(fmt.Errorf("rabbitmq dial: %w", err))
		}
		closers = append(closers, func() { _ = conn.Close() })

		pubCh, err := conn.Channel()
		if err != nil {
			return fail(err)
		}
		if err := queue.DeclareTopology(pubCh); err != nil {
			return fail(err)
		}
		pub = queue.NewSalePublisher(pubCh)

		subCh, err := conn.Channel()
		if err != nil {
			return fail(err)
		}
		router := queue.NewRouter(subCh, queue.WithPrefetch(cfg.Rabbit.Prefetch))
		router.Register(queue.QueueSaleCompleted, queue.NewSaleCompletedHandler(statusCache).Handler())
		if err := router.Start(ctx); err != nil {
			return fail(fmt.Errorf("rabbitmq consume: %w", err))
		}
	} else {
		log.Warn("rabbitmq disabled; sale.completed events are not published")
	}

	sales := usecase.NewSaleService(saleRepo, idem, pub, statusCache)

	// kafka: back-office status changes
	if cfg.Kafka.Enabled {
		grp, err := kafka.NewGroup(kafka.GroupConfig{
			Brokers:  cfg.Kafka.Brokers,
			GroupID:  cfg.Kafka.GroupID,
			ClientID: cfg.App.Name,
		})
		if err != nil {
			return fail(fmt.Errorf("kafka group: %w", err))
		}
		closers = append(closers, func() { _ = grp.Close() })

		h := kafka.NewSaleStatusChangedHandler(sales)
		consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicStatus}, h.Handle)
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error("kafka consumer stopped", "error", err)
			}
		}()
	}

	// http
	taxRate, err := cfg.TaxRate()
	if err != nil {
		return fail(err)
	}
	sessions := http.NewSessionRegistry(cfg.Checkout.SessionTTL)
	go sessions.Run(ctx, time.Minute, func(n int) { log.Info("expired checkout sessions", "count", n) })

	router := http.NewRouter(http.Handlers{
		Token: http.NewTokenHandler(cfg),
		Cart:  http.NewCartHandler(carts, cfg.HTTP.RequestTimeout),
		Checkout: http.NewCheckoutHandler(sales, carts, sessions, observ.NewCheckoutMetrics(prometheus.DefaultRegisterer), http.CheckoutDefaults{
			Currency:       cfg.Checkout.Currency,
			TaxRate:        taxRate,
			RequestTimeout: cfg.HTTP.RequestTimeout,
		}),
		Sale: http.NewSaleHandler(sales),
	}, middleware.NewAuthz(cfg))

	log.Info("gpos-checkout: started", "db_driver", cfg.MySQL.Driver, "rabbitmq", cfg.Rabbit.Enabled, "kafka", cfg.Kafka.Enabled)
	return &App{Router: router}, cleanup, nil
}

func openDB(ctx context.Context, cfg configs.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.MySQL.Driver, cfg.MySQL.DSN)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if cfg.MySQL.Migrate {
		if err := repo.Migrate(pingCtx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}
