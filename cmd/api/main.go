package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sweetshop/api/internal/config"
	"github.com/sweetshop/api/internal/db"
	"github.com/sweetshop/api/internal/domain/user"
	httpx "github.com/sweetshop/api/internal/http"
	"github.com/sweetshop/api/internal/observability"
	"github.com/sweetshop/api/internal/repo/memory"
	"github.com/sweetshop/api/internal/repo/postgres"
	"github.com/sweetshop/api/internal/security"
	"github.com/sweetshop/api/internal/service"

	"github.com/sweetshop/api/internal/auth"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())

	// tracing is optional; without an endpoint spans stay local no-ops
	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "sweetshop-api", cfg.OTELEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(3 * time.Second)
			defer cancel()

			_ = shutdownTracer(ctx)
		}()
	}

	// stores: postgres when DB config is present, in-memory otherwise

	var (
		users   service.UserStore
		sweets  service.SweetStore
		dbPing  func() error
		rdb     *redis.Client
		rdbPing func() error
	)

	if cfg.DBURL != "" {
		pool, err := db.NewPool(cfg.DBURL)

		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}

		defer pool.Close()

		ctx, cancel := config.WithTimeout(10 * time.Second)

		if err := db.EnsureSchema(ctx, pool); err != nil {
			cancel()
			log.Error("schema bootstrap failed", "err", err)
			os.Exit(1)
		}

		if err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
			cancel()
			log.Error("admin seed failed", "err", err)
			os.Exit(1)
		}
		cancel()

		users = postgres.NewUsersRepo(pool, prom)
		sweets = postgres.NewSweetsRepo(pool, prom)

		dbPing = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return pool.Ping(ctx)
		}
	} else {
		log.Warn("no DB configured, using in-memory stores")

		usersRepo := memory.NewUsersRepo()

		if err := seedMemoryAdmin(usersRepo, cfg); err != nil {
			log.Error("admin seed failed", "err", err)
			os.Exit(1)
		}

		users = usersRepo
		sweets = memory.NewSweetsRepo()
	}

	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		defer rdb.Close()

		rdbPing = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return rdb.Ping(ctx).Err()
		}
	}

	identity := service.NewIdentityService(users)
	inventory := service.NewInventoryService(sweets, prom)
	guard := service.NewGuard(identity)

	router := httpx.NewRouter(httpx.Deps{
		Cfg:       cfg,
		Log:       log,
		JWT:       jwtManager,
		Identity:  identity,
		Inventory: inventory,
		Guard:     guard,
		Prom:      prom,
		Redis:     rdb,
		DBPing:    dbPing,
		RedisPing: rdbPing,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(srv, log)
}

// seedMemoryAdmin mirrors db.EnsureAdminUser for the in-memory store.
func seedMemoryAdmin(repo *memory.UsersRepo, cfg config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = repo.Create(context.Background(), user.User{
		ID:           uuid.NewString(),
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		CreatedAt:    time.Now().UTC().UnixMilli(),
	})

	return err
}

func waitForShutdown(srv *http.Server, log *slog.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
