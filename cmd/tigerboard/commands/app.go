package commands

import (
	"fmt"
	"time"

	"github.com/wonhee/tigerboard/internal/collector"
	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/external/eastmoney"
	"github.com/wonhee/tigerboard/internal/external/sina"
	"github.com/wonhee/tigerboard/internal/external/yahoo"
	"github.com/wonhee/tigerboard/internal/pacing"
	"github.com/wonhee/tigerboard/internal/ranking"
	"github.com/wonhee/tigerboard/internal/router"
	"github.com/wonhee/tigerboard/internal/stability"
	"github.com/wonhee/tigerboard/internal/store"
	"github.com/wonhee/tigerboard/pkg/config"
	"github.com/wonhee/tigerboard/pkg/database"
	"github.com/wonhee/tigerboard/pkg/httputil"
	"github.com/wonhee/tigerboard/pkg/logger"
	"github.com/wonhee/tigerboard/pkg/redis"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// app bundles the wired pipeline. Every command builds one of these
// instead of repeating the plumbing.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client
	cache *redis.Cache

	instruments contracts.InstrumentRepository
	records     contracts.RecordRepository
	snapshots   contracts.SnapshotRepository

	collector *collector.Collector
	ranking   *ranking.Engine
	stability *stability.Service
}

// buildApp loads config and wires the full pipeline.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	instruments := store.NewInstrumentRepository(db.Pool)
	records := store.NewRecordRepository(db.Pool)
	snapshots := store.NewSnapshotRepository(db.Pool)

	rt := router.New(log, buildProviders(cfg, redisClient, log)...)

	baseline, err := time.Parse("2006-01-02", cfg.Pipeline.BaselineDate)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("parse baseline date: %w", err)
	}

	col := collector.New(rt, instruments, records, collector.Config{
		Workers:      cfg.Pipeline.Workers,
		FetchTimeout: cfg.Pipeline.FetchTimeout,
		BaselineDate: baseline,
	}, log)

	return &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		redis:       redisClient,
		cache:       redis.NewCache(redisClient, "tigerboard"),
		instruments: instruments,
		records:     records,
		snapshots:   snapshots,
		collector:   col,
		ranking:     ranking.NewEngine(instruments, records, snapshots, log),
		stability:   stability.NewService(records, log),
	}, nil
}

// buildProviders creates the three adapters. Yahoo gets a pacer so a
// large batch does not trip its throttle; with Redis enabled the pacer
// is shared across processes.
func buildProviders(cfg *config.Config, redisClient *redis.Client, log *logger.Logger) []contracts.Provider {
	timeout := cfg.Pipeline.FetchTimeout

	emHTTP := httputil.New(log, timeout).WithHeader("User-Agent", userAgent)
	snHTTP := httputil.New(log, timeout).WithHeader("User-Agent", userAgent)

	var yahooPacer httputil.Pacer
	if redisClient.Enabled() {
		limit := int(cfg.Yahoo.RatePerSec)
		if limit < 1 {
			limit = 1
		}
		yahooPacer = pacing.NewDistributed(
			redis.NewRateLimiter(redisClient, "tigerboard"),
			redis.RateLimitConfig{Key: "provider:yahoo", Limit: limit, Window: time.Second},
		)
	} else {
		yahooPacer = pacing.NewTokenBucket(cfg.Yahoo.RatePerSec, cfg.Yahoo.Burst, cfg.Yahoo.Jitter)
	}
	yhHTTP := httputil.New(log, timeout).
		WithHeader("User-Agent", userAgent).
		WithPacer(yahooPacer)

	return []contracts.Provider{
		eastmoney.NewClient(cfg.Eastmoney, emHTTP, log),
		yahoo.NewClient(cfg.Yahoo, yhHTTP, log),
		sina.NewClient(cfg.Sina, snHTTP, log),
	}
}

// Close releases connections.
func (a *app) Close() {
	a.db.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis client")
	}
}
