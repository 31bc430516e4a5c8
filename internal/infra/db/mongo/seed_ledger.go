package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SeedLedger remembers which seed sets were already applied to the database.
type SeedLedger struct {
	col *mongo.Collection
}

func NewSeedLedger(db *mongo.Database) *SeedLedger {
	return &SeedLedger{col: db.Collection("app_seed")}
}

// Claim records name and reports whether this call was the first to do so.
func (s *SeedLedger) Claim(ctx context.Context, name string) (bool, error) {
	_, err := s.col.InsertOne(ctx, bson.M{"_id": name, "applied_at": time.Now().UTC()})
	if err == nil {
		return true, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	return false, err
}
