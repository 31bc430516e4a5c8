package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
	domainprofiles "skillbridge/internal/domain/profiles"
	domainratings "skillbridge/internal/domain/ratings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection("agg_listing")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{Keys: bson.D{{Key: "creator_id", Value: 1}}})
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

// Save upserts the listing guarded by its version.
func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainlistings.ErrListingNotFound
	}
	return nil
}

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "session.end", Value: 1}}},
	})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrDuplicateBookingID
		}
		return err
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"listing_id": string(listingID)})
}

func (r *BookingRepository) ListConfirmedEndedBefore(ctx context.Context, t time.Time) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{
		"status":      string(domainbooking.StatusConfirmed),
		"session.end": bson.M{"$lt": timeToTimestamp(t)},
	})
}

// UpdateStatus writes status and payment only if the stored version still
// matches b.Version.
func (r *BookingRepository) UpdateStatus(ctx context.Context, b *domainbooking.Booking) error {
	filter := bson.M{"_id": string(b.ID), "version": b.Version}
	update := bson.M{
		"$set": bson.M{
			"status":         string(b.Status),
			"payment_status": string(b.Payment),
			"updated_at":     timeToTimestamp(b.UpdatedAt),
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": string(b.ID)}, options.Count().SetLimit(1))
		if err != nil {
			return err
		}
		if n == 0 {
			return domainbooking.ErrBookingNotFound
		}
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version++
	return nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

type RatingRepository struct {
	col *mongo.Collection
}

// NewRatingRepository ensures the unique index that backs duplicate detection.
func NewRatingRepository(db *mongo.Database) *RatingRepository {
	col := db.Collection("agg_rating")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "from_user_id", Value: 1},
				{Key: "to_user_id", Value: 1},
				{Key: "type", Value: 1},
				{Key: "target_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "to_user_id", Value: 1}, {Key: "type", Value: 1}}},
	})
	return &RatingRepository{col: col}
}

func (r *RatingRepository) HasRating(ctx context.Context, key domainratings.Key) (bool, error) {
	n, err := r.col.CountDocuments(ctx, keyFilter(key), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RatingRepository) Add(ctx context.Context, rating *domainratings.Rating) error {
	if _, err := r.col.InsertOne(ctx, newRatingDocument(rating)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainratings.ErrDuplicateRating
		}
		return err
	}
	return nil
}

func (r *RatingRepository) ListByUserAndType(ctx context.Context, userID string, t domainratings.Type) ([]*domainratings.Rating, error) {
	cur, err := r.col.Find(ctx, bson.M{"to_user_id": userID, "type": string(t)})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []ratingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainratings.Rating, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type ProfileRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection("agg_profile"), now: time.Now}
}

func (r *ProfileRepository) ByID(ctx context.Context, userID string) (*domainprofiles.Profile, error) {
	var doc profileDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainprofiles.ErrProfileNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ProfileRepository) Save(ctx context.Context, p *domainprofiles.Profile) error {
	doc := newProfileDocument(p)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

// UpdateAggregate overwrites one direction's aggregate and creates the
// profile document when it does not exist yet.
func (r *ProfileRepository) UpdateAggregate(ctx context.Context, userID string, t domainratings.Type, agg domainratings.Aggregate) error {
	update := bson.M{"$set": bson.M{
		aggregateField(t): aggregateDocument{Average: agg.Average, Count: agg.Count},
		"updated_at":      r.now().UTC().UnixMilli(),
	}}
	_, err := r.col.UpdateByID(ctx, userID, update, options.Update().SetUpsert(true))
	return err
}

var (
	_ domainlistings.Repository = (*ListingRepository)(nil)
	_ domainbooking.Repository  = (*BookingRepository)(nil)
	_ domainratings.Repository  = (*RatingRepository)(nil)
	_ domainprofiles.Repository = (*ProfileRepository)(nil)
)
