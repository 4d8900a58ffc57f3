// Package outreachservice wires configuration, storage, providers, and HTTP
// transport into the running outreach service.
package outreachservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/activity"
	"github.com/calltide/outreach-server/internal/api"
	"github.com/calltide/outreach-server/internal/audit"
	"github.com/calltide/outreach-server/internal/config"
	"github.com/calltide/outreach-server/internal/delivery"
	"github.com/calltide/outreach-server/internal/executor"
	"github.com/calltide/outreach-server/internal/factory"
	"github.com/calltide/outreach-server/internal/health"
	"github.com/calltide/outreach-server/internal/logger"
	"github.com/calltide/outreach-server/internal/mailer"
	"github.com/calltide/outreach-server/internal/orchestrator"
	"github.com/calltide/outreach-server/internal/planner"
	"github.com/calltide/outreach-server/internal/store"
	"github.com/calltide/outreach-server/internal/sweep"
	"github.com/calltide/outreach-server/internal/telephony"
)

// Run starts the outreach service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("outreach-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("timezone", cfg.BusinessTimezone).
		Msg("Outreach service starting")

	// Cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}

	deps, exec, err := buildServices(st, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Service wiring failed")
		return err
	}
	router := api.NewRouter(deps)

	// Health checkers and service health binding
	svcHealth := startHealthCheckers(ctx, cfg, log, st)
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	// Background sweep keeps waiting sequences moving
	sweeper := sweep.NewWorker(st, exec, sweep.Config{
		Interval:  time.Duration(cfg.SweepIntervalSeconds) * time.Second,
		BatchSize: cfg.SweepBatchSize,
	}, log)
	go func() { _ = sweeper.Run(ctx) }()

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildServices constructs the domain services over the store and providers.
// The executor is returned separately so the sweep worker can share it.
func buildServices(st store.Store, cfg *config.Config, log zerolog.Logger) (api.Deps, *executor.Executor, error) {
	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return api.Deps{}, nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", cfg.BusinessTimezone, err)
	}

	rec := activity.NewRecorder(st, log)
	twilio := telephony.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	resend := mailer.NewResendClient(cfg.ResendAPIKey, cfg.EmailFrom)

	plan := planner.New(st, log)
	exec := executor.New(st, plan, resend, twilio, rec, cfg.TwilioFromNumber, log)

	gate := audit.NewGate(st, twilio, rec, audit.Config{
		Location:        loc,
		WindowStartHour: cfg.CallWindowStartHour,
		WindowEndHour:   cfg.CallWindowEndHour,
		DailyCap:        cfg.DailyCallCap,
		FromNumber:      cfg.TwilioFromNumber,
		ResponseURL:     cfg.PublicBaseURL + "/api/audit/twiml",
		StatusURL:       cfg.PublicBaseURL + "/api/audit/status",
		RingTimeoutSecs: cfg.RingTimeoutSeconds,
	}, log)

	return api.Deps{
		Store:        st,
		Gate:         gate,
		Orchestrator: orchestrator.New(st, exec, rec, log),
		Delivery:     delivery.NewService(st, rec, log),
	}, exec, nil
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthCheckIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := cfg.HealthWaitSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
