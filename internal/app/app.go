package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"fridge-app-go/internal/config"
	"fridge-app-go/internal/db"
	"fridge-app-go/internal/domain/change"
	fridgedomain "fridge-app-go/internal/domain/fridge"
	inventorydomain "fridge-app-go/internal/domain/inventory"
	profiledomain "fridge-app-go/internal/domain/profile"
	shoppingdomain "fridge-app-go/internal/domain/shopping"
	"fridge-app-go/internal/metrics"
	"fridge-app-go/internal/realtime"
	"fridge-app-go/internal/repository/inmemory"
	fridgerepo "fridge-app-go/internal/repository/postgres/fridge"
	inventoryrepo "fridge-app-go/internal/repository/postgres/inventory"
	profilerepo "fridge-app-go/internal/repository/postgres/profile"
	shoppingrepo "fridge-app-go/internal/repository/postgres/shopping"
	"fridge-app-go/internal/repository/redisstore"
	"fridge-app-go/internal/transport/httpserver"
	"fridge-app-go/internal/transport/httpserver/handler"
	commonhandler "fridge-app-go/internal/transport/httpserver/handler/common"
	fridgeshandler "fridge-app-go/internal/transport/httpserver/handler/fridges"
	inventoryhandler "fridge-app-go/internal/transport/httpserver/handler/inventory"
	shoppinghandler "fridge-app-go/internal/transport/httpserver/handler/shopping"
	streamhandler "fridge-app-go/internal/transport/httpserver/handler/stream"
	"fridge-app-go/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	redis      *redis.Client
	sessions   *realtime.Manager
	bridge     *realtime.RedisBridge
	stopBridge context.CancelFunc
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	decimal.MarshalJSONWithoutQuotes = true

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(dbConn, log); err != nil {
		closeDB(dbConn)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := dbConn.DB()
	if err != nil {
		closeDB(dbConn)
		return nil, fmt.Errorf("db handle: %w", err)
	}

	a := &App{cfg: cfg, log: log, db: dbConn}

	m := metrics.New()
	hub := realtime.NewHub(m)

	var (
		notifier      change.Notifier = hub
		cache         fridgedomain.Cache
		inventoryOpts = []inventorydomain.Option{inventorydomain.WithMetrics(m)}
	)
	if cfg.Redis.Enabled() {
		log.Info("app: connecting to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(context.Background()).Err(); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}

		a.bridge = realtime.NewRedisBridge(a.redis, cfg.Realtime.Channel, hub, log)
		notifier = a.bridge
		cache = redisstore.NewMembershipCache(a.redis, log)
		inventoryOpts = append(inventoryOpts, inventorydomain.WithLocker(redisstore.NewLocker(a.redis), cfg.Inventory.LockTTL))
	} else {
		log.Info("app: redis disabled, using in-process fan-out and cache")
		cache = inmemory.NewInMemoryMembershipCache()
	}
	inventoryOpts = append(inventoryOpts, inventorydomain.WithNotifier(notifier))

	profileService := profiledomain.NewService(profilerepo.NewPostgres(dbConn), notifier)
	fridgeService := fridgedomain.NewService(
		fridgerepo.NewPostgres(dbConn),
		fridgedomain.WithCache(cache, cfg.Membership.CacheTTL),
		fridgedomain.WithNotifier(notifier),
	)
	inventoryService := inventorydomain.NewService(inventoryrepo.NewPostgres(dbConn), fridgeService, inventoryOpts...)
	shoppingService := shoppingdomain.NewService(shoppingrepo.NewPostgres(dbConn), fridgeService, inventoryService, notifier)

	loader := realtime.NewServiceLoader(profileService, fridgeService, inventoryService, shoppingService)
	a.sessions = realtime.NewManager(hub, loader, log, m)

	handlers := handler.New(
		commonhandler.New(profileService, fridgeService, a.sessions, sqlDB, log),
		fridgeshandler.New(fridgeService, log),
		inventoryhandler.New(inventoryService, log),
		shoppinghandler.New(shoppingService, log),
		streamhandler.New(a.sessions, cfg.Realtime.Heartbeat, log),
	)

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, handlers, profileService, m, log)

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router, log)
	a.httpServer.RegisterOnShutdown(a.sessions.Shutdown)

	return a, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// Start runs background workers until ctx is cancelled or Close is called.
func (a *App) Start(ctx context.Context) {
	if a.bridge == nil {
		return
	}
	ctx, a.stopBridge = context.WithCancel(ctx)
	go func() {
		if err := a.bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.InternalError("realtime: redis bridge stopped", err, "channel", a.cfg.Realtime.Channel)
		}
	}()
}

func (a *App) Close() error {
	if a.sessions != nil {
		a.sessions.Shutdown()
	}
	if a.stopBridge != nil {
		a.stopBridge()
	}

	var errsOut []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errsOut = append(errsOut, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errsOut = append(errsOut, err)
		} else if err := sqlDB.Close(); err != nil {
			errsOut = append(errsOut, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errsOut...)
}

func closeDB(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
