package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/entity"
	"github.com/vibast-solutions/portal-payments/app/gateway"
	"github.com/vibast-solutions/portal-payments/app/metrics"
	"github.com/vibast-solutions/portal-payments/app/poller"
	"github.com/vibast-solutions/portal-payments/app/repository"
	"github.com/vibast-solutions/portal-payments/app/service"
	"github.com/vibast-solutions/portal-payments/app/session"
	"github.com/vibast-solutions/portal-payments/app/transport"
	"github.com/vibast-solutions/portal-payments/config"
)

type application struct {
	cfg           *config.Config
	scope         session.Scope
	store         *session.Store
	auth          *service.AuthService
	payments      *service.PaymentService
	subscriptions *service.SubscriptionService
	catalog       *gateway.CatalogClient
	owner         *service.OwnerService
}

func mustCreateApp() (*application, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	metrics.MustRegister()

	rawScope := cfg.App.Scope
	if scopeFlag != "" {
		rawScope = scopeFlag
	}
	scope, err := session.ParseScope(rawScope)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid scope")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	storage, closeStorage, err := openSessionStorage(ctx, cfg)
	if err != nil {
		logrus.WithError(err).WithField("store", cfg.Session.Store).Fatal("Failed to open session storage")
	}

	store := session.NewStore(scope, storage)
	if _, err := store.RestoreSession(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to restore session")
	}

	api := transport.NewClient(transport.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.App.UserAgent,
		OnAuthFailure: func() {
			logrus.Warn("Session expired. Run `portal login` to sign in again.")
		},
	}, store)

	paymentClient := gateway.NewPaymentClient(api, gateway.PaymentConfig{
		Timeout:         cfg.API.PaymentTimeout,
		LongPollTimeout: cfg.API.LongPollTimeout,
	})
	fetch := paymentClient.GetPaymentStatus
	if cfg.Payments.ServerPoll {
		fetch = paymentClient.PollPaymentStatus
	}
	statusPoller := poller.New(fetch, poller.Config{
		MaxAttempts: cfg.Payments.PollMaxAttempts,
		Interval:    cfg.Payments.PollInterval,
		Timeout:     cfg.Payments.PollTimeout,
		Clock:       clock.WallClock,
	})

	role := entity.RoleMember
	if scope == session.ScopeOwner {
		role = entity.RoleOwner
	}

	app := &application{
		cfg:           cfg,
		scope:         scope,
		store:         store,
		auth:          service.NewAuthService(gateway.NewAuthClient(api, role), store),
		payments:      service.NewPaymentService(paymentClient, statusPoller, store, cfg.Payments),
		subscriptions: service.NewSubscriptionService(gateway.NewSubscriptionClient(api), store),
		catalog:       gateway.NewCatalogClient(api),
		owner:         service.NewOwnerService(gateway.NewOwnerClient(api), store, role),
	}

	cleanup := func() {
		if err := closeStorage(); err != nil {
			logrus.WithError(err).Warn("Failed to close session storage")
		}
	}
	return app, cleanup
}

func openSessionStorage(ctx context.Context, cfg *config.Config) (session.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Session.Store {
	case "memory":
		return repository.NewMemoryStorage(), noop, nil
	case "redis":
		cli, err := repository.NewRedisClient(ctx, repository.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisStorage(cli, cfg.Redis.Prefix+cfg.Session.Namespace+":", cfg.Session.RedisTTL), cli.Close, nil
	case "mysql":
		db, err := repository.OpenMySQL(ctx, repository.MySQLOptions{
			DSN:             cfg.MySQL.DSN,
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		storage := repository.NewMySQLStorage(db, cfg.Session.Namespace)
		if err := storage.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return storage, db.Close, nil
	case "sqlite":
		db, err := repository.OpenSQLite(cfg.Session.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		storage := repository.NewSQLiteStorage(db, cfg.Session.Namespace)
		if err := storage.EnsureSchema(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return storage, sqlDB.Close, nil
	default:
		return repository.NewFileStorage(cfg.Session.FilePath), noop, nil
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
