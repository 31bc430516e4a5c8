package main

import (
	"context"
	"fmt"

	"skillbridge/internal/infra/config"
	"skillbridge/internal/infra/db/mongo"
	"skillbridge/internal/infra/obs"
	"skillbridge/internal/infra/storage/memory"
)

func openStores(cfg config.Config) (stores, error) {
	switch cfg.StorageDriver {
	case config.StorageMongo:
		return mongoStores(cfg)
	case config.StorageMemory, "":
		return memoryStores(cfg), nil
	}
	return stores{}, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func memoryStores(cfg config.Config) stores {
	return stores{
		Listings:    memory.NewListingRepository(),
		Bookings:    memory.NewBookingRepository(),
		Ratings:     memory.NewRatingRepository(),
		Profiles:    memory.NewProfileRepository(),
		Outbox:      memory.NewOutbox(),
		Idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		Seeds:       memory.NewSeedLedger(),
		Checks:      map[string]obs.Check{},
		Close:       func(context.Context) error { return nil },
	}
}

func mongoStores(cfg config.Config) (stores, error) {
	client, err := mongo.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return stores{}, fmt.Errorf("connect mongo: %w", err)
	}
	db := client.DB
	return stores{
		Listings:    mongo.NewListingRepository(db),
		Bookings:    mongo.NewBookingRepository(db),
		Ratings:     mongo.NewRatingRepository(db),
		Profiles:    mongo.NewProfileRepository(db),
		Outbox:      mongo.NewOutboxStore(db),
		Idempotency: mongo.NewIdempotencyStore(db, cfg.IdempotencyTTL),
		Seeds:       mongo.NewSeedLedger(db),
		Checks:      map[string]obs.Check{"mongo": client.Ping},
		Close:       client.Close,
	}, nil
}
