package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/invoicebox/internal/activity"
	activityStore "github.com/MrJamesThe3rd/invoicebox/internal/activity/store"
	"github.com/MrJamesThe3rd/invoicebox/internal/auth"
	"github.com/MrJamesThe3rd/invoicebox/internal/config"
	"github.com/MrJamesThe3rd/invoicebox/internal/database"
	invoiceboxHttp "github.com/MrJamesThe3rd/invoicebox/internal/http"
	accountHandler "github.com/MrJamesThe3rd/invoicebox/internal/http/account"
	adminHandler "github.com/MrJamesThe3rd/invoicebox/internal/http/admin"
	dashboardHandler "github.com/MrJamesThe3rd/invoicebox/internal/http/dashboard"
	invoiceHandler "github.com/MrJamesThe3rd/invoicebox/internal/http/invoice"
	paymentHandler "github.com/MrJamesThe3rd/invoicebox/internal/http/payment"
	"github.com/MrJamesThe3rd/invoicebox/internal/importer"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/invoicebox/internal/invoice/store"
	"github.com/MrJamesThe3rd/invoicebox/internal/payment"
	paymentStore "github.com/MrJamesThe3rd/invoicebox/internal/payment/store"
	"github.com/MrJamesThe3rd/invoicebox/internal/report"
	reportStore "github.com/MrJamesThe3rd/invoicebox/internal/report/store"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
	userStore "github.com/MrJamesThe3rd/invoicebox/internal/user/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(config.NewLogger(cfg, os.Stdout))

	db, err := database.New(context.Background(), cfg.ConnectionString(), dbPool(cfg))
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := migrate(cfg); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		slog.Error("invalid redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	var (
		userService     = user.NewService(userStore.New(db)).WithBcryptCost(cfg.Auth.BcryptCost)
		authService     = auth.NewService(auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL), auth.NewBlacklist(rdb))
		invoiceService  = invoice.NewService(invoiceStore.New(db), userService)
		paymentService  = payment.NewService(paymentStore.New(db), invoiceService)
		reportService   = report.NewService(reportStore.New(db), invoiceService)
		activityService = activity.NewService(activityStore.New(db))
		importService   = importer.NewService()
	)

	handlers := invoiceboxHttp.Handlers{
		Account:   accountHandler.NewHandler(userService, authService, activityService),
		Invoices:  invoiceHandler.NewHandler(invoiceService, paymentService, importService, activityService),
		Payments:  paymentHandler.NewHandler(paymentService, activityService),
		Dashboard: dashboardHandler.NewHandler(reportService),
		Admin: adminHandler.NewHandler(adminHandler.Deps{
			Users:    userService,
			Auth:     authService,
			Invoices: invoiceService,
			Reports:  reportService,
			Activity: activityService,
		}),
	}

	router := invoiceboxHttp.New(invoiceboxHttp.Options{
		CORSOrigins:   cfg.Server.CORSOrigins,
		RateLimit:     cfg.Server.RateLimit,
		StrictHeaders: cfg.Server.Secure,
		Timeout:       cfg.Server.Timeout,
	}, authService, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// migrate runs on its own connection because closing the migrator closes
// the database handle it was given.
func migrate(cfg *config.Config) error {
	db, err := database.New(context.Background(), cfg.ConnectionString(), dbPool(cfg))
	if err != nil {
		return err
	}

	m, err := database.NewMigrator(db, slog.Default())
	if err != nil {
		db.Close()
		return err
	}
	defer m.Close()

	return m.Up()
}

func dbPool(cfg *config.Config) database.Pool {
	return database.Pool{
		MaxOpen:     cfg.DB.MaxOpenConns,
		MaxIdle:     cfg.DB.MaxIdleConns,
		MaxLifetime: cfg.DB.ConnMaxLifetime,
	}
}
