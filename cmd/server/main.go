package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/catalog"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/config"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/database"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/infrastructure/commerce"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/infrastructure/payment"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/middleware"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/repo"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/server"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/service"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	static, err := catalog.NewStaticCatalog()
	if err != nil {
		return err
	}

	ledgerRepo := repo.NewLedgerRepo(db)
	gateway := payment.NewGateway(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ExternalTimeout)
	backend := commerce.NewClient(cfg.CommerceBaseURL, cfg.CommerceAPIKey, cfg.ExternalTimeout)
	pricer := catalog.NewPricer(backend, static, logger)

	webhookURL := strings.TrimRight(cfg.WebhookBaseURL, "/") + "/webhooks/payment"
	if cfg.WebhookToken != "" {
		webhookURL += "?token=" + cfg.WebhookToken
	}

	checkoutService := service.NewCheckoutService(pricer, gateway, backend, cfg.StorefrontURL, webhookURL, logger)
	reconcileService := service.NewReconcileService(ledgerRepo, gateway, backend, cfg.RetryLease, logger)
	statusService := service.NewStatusService(gateway, ledgerRepo, logger)

	auditor := worker.NewStuckClaimAuditor(ledgerRepo, cfg.AuditInterval, cfg.StuckAfter, logger)
	go auditor.Run(ctx)

	srv := server.New(checkoutService, reconcileService, statusService, db, cfg.WebhookToken, logger)
	limiter := middleware.NewMemoryStore(cfg.CheckoutRPS, cfg.CheckoutBurst)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(cfg.StorefrontURL, limiter),
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("server listening", slog.String("port", cfg.Port))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down")

	return httpServer.Shutdown(shutdownCtx)
}
