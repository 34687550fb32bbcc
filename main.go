// Package main is the entry point for the contract tracker Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/yelinaung/contract-bot/internal/bot"
	"gitlab.com/yelinaung/contract-bot/internal/calendar"
	"gitlab.com/yelinaung/contract-bot/internal/config"
	"gitlab.com/yelinaung/contract-bot/internal/database"
	"gitlab.com/yelinaung/contract-bot/internal/logger"
	"gitlab.com/yelinaung/contract-bot/internal/renewal"
	"gitlab.com/yelinaung/contract-bot/internal/repository"
	"gitlab.com/yelinaung/contract-bot/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	mode := ""
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "version":
		fmt.Printf("contract-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	case "", "bot", "renew":
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [bot|renew|version]\n", os.Args[0])
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	logger.InitHashSalt()

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Exporter:    cfg.OTelExporter,
		ServiceName: cfg.ServiceName,
		Version:     version,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create schema")
	}

	if err := database.SeedPaymentPeriods(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed payment periods")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	if mode == "renew" {
		runRenewal(ctx, cfg, pool)
		return
	}

	runBot(ctx, cfg, pool)
}

// runRenewal performs a single renewal pass, for use from cron.
func runRenewal(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) {
	job := renewal.NewJob(repository.NewContractRepository(pool), renewal.Options{CatchUp: cfg.RenewalCatchUp})

	runCtx, cancel := context.WithTimeout(ctx, renewal.RunTimeout)
	defer cancel()

	res, err := job.Run(runCtx, calendar.Today(time.Now(), cfg.Location()))
	if err != nil {
		logger.Log.Error().Err(err).Int("renewed", res.Renewed).Msg("Renewal pass failed")
		return
	}
	logger.Log.Info().Int("checked", res.Checked).Int("renewed", res.Renewed).Msg("Renewal pass finished")
}

func runBot(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) {
	if err := cfg.RequireBot(); err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid bot configuration")
	}

	users := repository.NewUserRepository(pool)
	for _, id := range cfg.WhitelistedUserIDs {
		if err := users.Allow(ctx, id); err != nil {
			logger.Log.Fatal().Err(err).Str("user_hash", logger.HashUserID(id)).Msg("Failed to seed allow-list")
		}
	}

	refs := repository.NewReferenceRepository(pool)
	if err := refs.Seed(ctx, cfg.SeedBeneficiaries, cfg.SeedContractors, cfg.SeedBankAccounts); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed lookup tables")
	}

	telegramBot, err := bot.New(cfg, pool)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	telegramBot.Start(ctx)
	logger.Log.Info().Msg("Shutting down...")
}
