package main

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/config"
	"github.com/noah-isme/toko-pricing/internal/db"
	"github.com/noah-isme/toko-pricing/internal/discount"
	"github.com/noah-isme/toko-pricing/internal/lock"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/seed"
)

const seedLockKey = "toko-pricing:seed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("cmd", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, "toko-pricing-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	var locker lock.Locker
	if cfg.RedisEnabled() {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		locker.R = redis.NewClient(opts)
		defer locker.R.Close()
	}

	var res seed.Result
	run := func(ctx context.Context) error {
		var err error
		res, err = seed.Apply(ctx, catalog.NewPGStore(pool), discount.NewPGStore(pool), time.Now().UTC(), logger)
		return err
	}

	// Concurrent seeders racing on an empty database would both insert.
	err = locker.WithLock(ctx, seedLockKey, time.Minute, run)
	if errors.Is(err, lock.ErrNotConfigured) {
		logger.Warn().Msg("redis not configured, seeding without lock")
		err = run(ctx)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}
	logger.Info().Int("products", res.Products).Int("policies", res.Policies).Msg("seeding completed")
}
