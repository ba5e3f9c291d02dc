// tagbot - Telegram bot that answers every note with model-generated tags.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/jeranaias/tagbot/internal/bot"
	"github.com/jeranaias/tagbot/internal/config"
	"github.com/jeranaias/tagbot/internal/generate"
	"github.com/jeranaias/tagbot/internal/mistral"
	"github.com/jeranaias/tagbot/internal/telegram"
	"github.com/jeranaias/tagbot/internal/telemetry"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (default ~/.tagbot/config.toml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tagbot %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
		if p, pathErr := config.ConfigPath(); pathErr == nil {
			configPath = p
		}
	}
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Usage recording is optional; the bot runs fine without it.
	var store *telemetry.Store
	var recorder mistral.UsageRecorder
	if cfg.Telemetry.Enabled {
		dbPath := cfg.Telemetry.DBPath
		if dbPath == "" {
			if dbPath, err = config.DefaultDBPath(); err != nil {
				return err
			}
		}
		if store, err = telemetry.Open(dbPath, logger); err != nil {
			return fmt.Errorf("open usage store: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	// One limiter shared by all generators so the provider sees a
	// single request budget.
	var limiter *rate.Limiter
	if cfg.Mistral.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Mistral.RequestsPerSecond), cfg.Mistral.Burst)
	}

	// Each generator primes its own client with its own history, so
	// they cannot share one instance.
	newClient := func() *mistral.Client {
		c := mistral.NewClient(cfg.Mistral.Token).
			WithModel(cfg.Mistral.Model).
			WithTemperature(cfg.Mistral.Temperature).
			WithRandomSeed(cfg.Mistral.RandomSeed).
			WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Mistral.TimeoutSecs) * time.Second}).
			WithLogger(logger)
		if cfg.Mistral.BaseURL != "" {
			c = c.WithBaseURL(cfg.Mistral.BaseURL)
		}
		if limiter != nil {
			c = c.WithLimiter(limiter)
		}
		if recorder != nil {
			c = c.WithUsageRecorder(recorder)
		}
		return c
	}

	selector := generate.NewSelector(newClient())
	tags := generate.NewTagsGenerator(newClient()).WithMaxTags(cfg.Tags.MaxTags)
	help := generate.NewHelpGenerator(newClient()).
		WithEasterEggChance(cfg.Help.EasterEggChance).
		WithLogger(logger)

	tg, err := telegram.New(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	tg.WithLogger(logger).
		WithPollTimeout(cfg.Telegram.PollTimeoutSecs).
		WithDebug(cfg.Telegram.Debug)

	handler := bot.NewHandler(tg, selector, tags, help).WithLogger(logger)

	// Hot reload for the runtime-adjustable knobs.
	if _, statErr := os.Stat(configPath); statErr == nil {
		watcher, err := config.NewWatcher(configPath, logger, func(next *config.Config) {
			help.SetEasterEggChance(next.Help.EasterEggChance)
		})
		if err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
		} else if err := watcher.Watch(); err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
			watcher.Close()
		} else {
			defer watcher.Close()
		}
	}

	logger.Info("tagbot started",
		zap.String("version", Version),
		zap.String("model", cfg.Mistral.Model),
		zap.String("username", tg.Username()))

	err = tg.Run(ctx, handler)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if store != nil {
		if totals, totalsErr := store.Totals(context.Background()); totalsErr == nil {
			logger.Info("recorded usage",
				zap.Int("requests", totals.Requests),
				zap.Int("total_tokens", totals.TotalTokens))
		}
	}

	logger.Info("tagbot stopped")
	return err
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
