package profiles

import (
	"context"
	"errors"
	"time"

	"skillbridge/internal/domain/ratings"
)

var ErrProfileNotFound = errors.New("profiles: profile not found")

// Profile is the public face of a user. The rating aggregates are derived
// data; only the rating engine writes them.
type Profile struct {
	UserID        string
	Name          string
	Email         string
	Bio           string
	TutorRating   ratings.Aggregate
	StudentRating ratings.Aggregate
	UpdatedAt     time.Time
}

func (p *Profile) Rating(t ratings.Type) ratings.Aggregate {
	if t == ratings.TypeTutor {
		return p.TutorRating
	}
	return p.StudentRating
}

func (p *Profile) SetRating(t ratings.Type, agg ratings.Aggregate, now time.Time) {
	if t == ratings.TypeTutor {
		p.TutorRating = agg
	} else {
		p.StudentRating = agg
	}
	p.UpdatedAt = now.UTC()
}

// Repository is the profile port. UpdateAggregate replaces the aggregate for
// the given direction and leaves the other one untouched.
type Repository interface {
	ByID(ctx context.Context, userID string) (*Profile, error)
	UpdateAggregate(ctx context.Context, userID string, t ratings.Type, agg ratings.Aggregate) error
}
