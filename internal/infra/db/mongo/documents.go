package mongo

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
	domainprofiles "skillbridge/internal/domain/profiles"
	domainratings "skillbridge/internal/domain/ratings"
	"skillbridge/internal/domain/shared/session"
)

// Money is stored as a decimal string so that no precision is lost on the
// way through BSON doubles.

type listingDocument struct {
	ID         string `bson:"_id"`
	CreatorID  string `bson:"creator_id"`
	Kind       string `bson:"kind"`
	Title      string `bson:"title"`
	Subject    string `bson:"subject,omitempty"`
	Active     bool   `bson:"active"`
	HourlyRate string `bson:"hourly_rate"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
	Version    int64  `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:         string(l.ID),
		CreatorID:  l.CreatorID,
		Kind:       string(l.Kind),
		Title:      l.Title,
		Subject:    l.Subject,
		Active:     l.Active,
		HourlyRate: l.HourlyRate.String(),
		CreatedAt:  timeToTimestamp(l.CreatedAt),
		UpdatedAt:  timeToTimestamp(l.UpdatedAt),
		Version:    l.Version,
	}
}

func (d listingDocument) toAggregate() (*domainlistings.Listing, error) {
	rate, err := decimal.NewFromString(d.HourlyRate)
	if err != nil {
		return nil, fmt.Errorf("listing %s: hourly rate: %w", d.ID, err)
	}
	kind, err := domainlistings.ParseKind(d.Kind)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.ID, err)
	}
	return &domainlistings.Listing{
		ID:         domainlistings.ListingID(d.ID),
		CreatorID:  d.CreatorID,
		Kind:       kind,
		Title:      d.Title,
		Subject:    d.Subject,
		Active:     d.Active,
		HourlyRate: rate,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}, nil
}

type sessionDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type bookingDocument struct {
	ID               string          `bson:"_id"`
	ListingID        string          `bson:"listing_id"`
	ListingCreatorID string          `bson:"listing_creator_id"`
	BookerID         string          `bson:"booker_id"`
	Session          sessionDocument `bson:"session"`
	Status           string          `bson:"status"`
	Payment          string          `bson:"payment_status"`
	Price            string          `bson:"price"`
	CreatedAt        int64           `bson:"created_at"`
	UpdatedAt        int64           `bson:"updated_at"`
	Version          int64           `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:               string(b.ID),
		ListingID:        string(b.ListingID),
		ListingCreatorID: b.ListingCreatorID,
		BookerID:         b.BookerID,
		Session:          sessionDocument{Start: timeToTimestamp(b.Session.Start), End: timeToTimestamp(b.Session.End)},
		Status:           string(b.Status),
		Payment:          string(b.Payment),
		Price:            b.Price.String(),
		CreatedAt:        timeToTimestamp(b.CreatedAt),
		UpdatedAt:        timeToTimestamp(b.UpdatedAt),
		Version:          b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return nil, fmt.Errorf("booking %s: price: %w", d.ID, err)
	}
	status, err := domainbooking.ParseStatus(d.Status)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", d.ID, err)
	}
	payment, err := domainbooking.ParsePaymentStatus(d.Payment)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", d.ID, err)
	}
	return &domainbooking.Booking{
		ID:               domainbooking.BookingID(d.ID),
		ListingID:        domainlistings.ListingID(d.ListingID),
		ListingCreatorID: d.ListingCreatorID,
		BookerID:         d.BookerID,
		Session:          session.Range{Start: timestampToTime(d.Session.Start), End: timestampToTime(d.Session.End)},
		Status:           status,
		Payment:          payment,
		Price:            price,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		Version:          d.Version,
	}, nil
}

type ratingDocument struct {
	ID         string `bson:"_id"`
	FromUserID string `bson:"from_user_id"`
	ToUserID   string `bson:"to_user_id"`
	Type       string `bson:"type"`
	TargetID   string `bson:"target_id"`
	ListingID  string `bson:"listing_id,omitempty"`
	Stars      int    `bson:"stars"`
	Comment    string `bson:"comment,omitempty"`
	CreatedAt  int64  `bson:"created_at"`
}

func newRatingDocument(r *domainratings.Rating) ratingDocument {
	return ratingDocument{
		ID:         string(r.ID),
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Type:       string(r.Type),
		TargetID:   r.TargetID,
		ListingID:  r.ListingID,
		Stars:      r.Stars,
		Comment:    r.Comment,
		CreatedAt:  timeToTimestamp(r.CreatedAt),
	}
}

func (d ratingDocument) toAggregate() *domainratings.Rating {
	return &domainratings.Rating{
		ID:         domainratings.RatingID(d.ID),
		FromUserID: d.FromUserID,
		ToUserID:   d.ToUserID,
		Type:       domainratings.Type(d.Type),
		TargetID:   d.TargetID,
		ListingID:  d.ListingID,
		Stars:      domainratings.ClampStars(d.Stars),
		Comment:    d.Comment,
		CreatedAt:  timestampToTime(d.CreatedAt),
	}
}

func keyFilter(k domainratings.Key) bson.M {
	return bson.M{
		"from_user_id": k.FromUserID,
		"to_user_id":   k.ToUserID,
		"type":         string(k.Type),
		"target_id":    k.TargetID,
	}
}

type aggregateDocument struct {
	Average float64 `bson:"average"`
	Count   int     `bson:"count"`
}

type profileDocument struct {
	ID            string            `bson:"_id"`
	Name          string            `bson:"name"`
	Email         string            `bson:"email,omitempty"`
	Bio           string            `bson:"bio,omitempty"`
	TutorRating   aggregateDocument `bson:"tutor_rating"`
	StudentRating aggregateDocument `bson:"student_rating"`
	UpdatedAt     int64             `bson:"updated_at"`
}

func newProfileDocument(p *domainprofiles.Profile) profileDocument {
	return profileDocument{
		ID:            p.UserID,
		Name:          p.Name,
		Email:         p.Email,
		Bio:           p.Bio,
		TutorRating:   aggregateDocument{Average: p.TutorRating.Average, Count: p.TutorRating.Count},
		StudentRating: aggregateDocument{Average: p.StudentRating.Average, Count: p.StudentRating.Count},
		UpdatedAt:     timeToTimestamp(p.UpdatedAt),
	}
}

func (d profileDocument) toAggregate() *domainprofiles.Profile {
	return &domainprofiles.Profile{
		UserID:        d.ID,
		Name:          d.Name,
		Email:         d.Email,
		Bio:           d.Bio,
		TutorRating:   domainratings.Aggregate{Average: d.TutorRating.Average, Count: d.TutorRating.Count},
		StudentRating: domainratings.Aggregate{Average: d.StudentRating.Average, Count: d.StudentRating.Count},
		UpdatedAt:     timestampToTime(d.UpdatedAt),
	}
}

// aggregateField names the profile field holding the aggregate for t.
func aggregateField(t domainratings.Type) string {
	if t == domainratings.TypeTutor {
		return "tutor_rating"
	}
	return "student_rating"
}
