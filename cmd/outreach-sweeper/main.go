// outreach-sweeper runs the sequence sweep as a standalone process, for
// deployments that keep background work out of the API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/calltide/outreach-server/internal/activity"
	"github.com/calltide/outreach-server/internal/config"
	"github.com/calltide/outreach-server/internal/executor"
	"github.com/calltide/outreach-server/internal/factory"
	"github.com/calltide/outreach-server/internal/logger"
	"github.com/calltide/outreach-server/internal/mailer"
	"github.com/calltide/outreach-server/internal/planner"
	"github.com/calltide/outreach-server/internal/sweep"
	"github.com/calltide/outreach-server/internal/telephony"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New("outreach-sweeper")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	st, err := factory.NewStore(cfg, lg)
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}

	rec := activity.NewRecorder(st, lg)
	twilio := telephony.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	resend := mailer.NewResendClient(cfg.ResendAPIKey, cfg.EmailFrom)
	exec := executor.New(st, planner.New(st, lg), resend, twilio, rec, cfg.TwilioFromNumber, lg)

	w := sweep.NewWorker(st, exec, sweep.Config{
		Interval:  time.Duration(cfg.SweepIntervalSeconds) * time.Second,
		BatchSize: cfg.SweepBatchSize,
	}, lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("sweep worker exit")
		os.Exit(1)
	}
}
