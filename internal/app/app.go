// Package app assembles the storage adapters, services and HTTP router
// selected by configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"ecommerce-backend/config"
	httpHandler "ecommerce-backend/internal/adapter/http/handler"
	"ecommerce-backend/internal/adapter/storage/memory"
	pgStorage "ecommerce-backend/internal/adapter/storage/postgres"
	redisStorage "ecommerce-backend/internal/adapter/storage/redis"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/internal/service"
	"ecommerce-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// App is a fully wired application.
type App struct {
	Router *gin.Engine

	repos   *repositories
	audit   *service.AuditServiceImpl
	closers []func()
}

// repositories is the storage surface the services run on.
type repositories struct {
	users       ports.UserRepository
	wallets     ports.WalletRepository
	ledger      ports.TransactionRepository
	products    ports.ProductRepository
	orders      ports.OrderRepository
	idempotency ports.IdempotencyRepository
	audit       ports.AuditRepository
	transactor  ports.DBTransactor
	health      ports.HealthChecker
}

// New connects the configured backends and builds the router.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt.secret must be set")
	}

	a := &App{}

	repos, err := a.openStorage(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.repos = repos

	checkers := []ports.HealthChecker{repos.health}

	var (
		idempCache  ports.IdempotencyCache
		rateLimiter ports.RateLimiter
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		idempCache = redisStorage.NewIdempotencyCache(rdb)
		rateLimiter = redisStorage.NewRateLimitStore(rdb)
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	} else {
		log.Warn().Msg("redis disabled, using in-process cache and rate limiter")
		idempCache = memory.NewCache()
		rateLimiter = memory.NewRateLimiter()
	}

	walletSvc := service.NewWalletService(repos.wallets, repos.ledger, repos.transactor, logger.Component(log, "wallet"))
	catalogSvc := service.NewCatalogService(repos.products, repos.transactor, logger.Component(log, "catalog"))
	purchaseSvc := service.NewPurchaseService(
		catalogSvc,
		walletSvc,
		repos.orders,
		repos.idempotency,
		idempCache,
		repos.transactor,
		cfg.Purchase.IdempotencyTTL,
		logger.Component(log, "purchase"),
	)
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	userSvc := service.NewUserService(repos.users, walletSvc, service.NewArgon2HashService(), tokenSvc, logger.Component(log, "user"))
	a.audit = service.NewAuditService(repos.audit, logger.Component(log, "audit"))

	gin.SetMode(cfg.Server.Mode)
	a.Router = httpHandler.SetupRouter(httpHandler.RouterDeps{
		UserSvc:          userSvc,
		WalletSvc:        walletSvc,
		CatalogSvc:       catalogSvc,
		PurchaseSvc:      purchaseSvc,
		TokenSvc:         tokenSvc,
		AllowAdminSignup: cfg.Auth.AllowAdminSignup,
		RateLimiter:      rateLimiter,
		RateLimits:       cfg.RateLimit,
		HealthCheckers:   checkers,
		AuditSvc:         a.audit,
		ServiceName:      cfg.Telemetry.ServiceName,
		Logger:           log,
	})

	return a, nil
}

func (a *App) openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repositories, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory storage, data is lost on exit")
		store := memory.NewStore()
		return &repositories{
			users:       memory.NewUserRepo(store),
			wallets:     memory.NewWalletRepo(store),
			ledger:      memory.NewTransactionRepo(store),
			products:    memory.NewProductRepo(store),
			orders:      memory.NewOrderRepo(store),
			idempotency: memory.NewIdempotencyRepo(store),
			audit:       memory.NewAuditRepo(store),
			transactor:  store,
			health:      store,
		}, nil

	case config.DriverPostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		if cfg.Database.AutoMigrate {
			if err := pgStorage.Migrate(ctx, pool, log); err != nil {
				return nil, fmt.Errorf("migrating schema: %w", err)
			}
		}

		return &repositories{
			users:       pgStorage.NewUserRepo(pool),
			wallets:     pgStorage.NewWalletRepo(pool),
			ledger:      pgStorage.NewTransactionRepo(pool),
			products:    pgStorage.NewProductRepo(pool),
			orders:      pgStorage.NewOrderRepo(pool),
			idempotency: pgStorage.NewIdempotencyRepo(pool),
			audit:       pgStorage.NewAuditRepo(pool),
			transactor:  pgStorage.NewTransactor(pool),
			health:      pgStorage.NewHealthCheck(pool),
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Close waits for pending audit writes, then releases connections in
// reverse order of acquisition.
func (a *App) Close() {
	if a.audit != nil {
		a.audit.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
