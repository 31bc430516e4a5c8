package dto

import (
	"time"

	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
	domainprofiles "skillbridge/internal/domain/profiles"
	domainratings "skillbridge/internal/domain/ratings"
)

type Booking struct {
	ID               string    `json:"id"`
	ListingID        string    `json:"listing_id"`
	ListingCreatorID string    `json:"listing_creator_id"`
	BookerID         string    `json:"booker_id"`
	SessionStart     time.Time `json:"session_start"`
	SessionEnd       time.Time `json:"session_end"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"payment_status"`
	Price            string    `json:"price"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
}

func BookingFrom(b *domainbooking.Booking) *Booking {
	if b == nil {
		return nil
	}
	return &Booking{
		ID:               string(b.ID),
		ListingID:        string(b.ListingID),
		ListingCreatorID: b.ListingCreatorID,
		BookerID:         b.BookerID,
		SessionStart:     b.Session.Start,
		SessionEnd:       b.Session.End,
		Status:           string(b.Status),
		PaymentStatus:    string(b.Payment),
		Price:            b.Price.StringFixed(2),
		Version:          b.Version,
		CreatedAt:        b.CreatedAt,
	}
}

func BookingsFrom(bs []*domainbooking.Booking) []Booking {
	out := make([]Booking, 0, len(bs))
	for _, b := range bs {
		if d := BookingFrom(b); d != nil {
			out = append(out, *d)
		}
	}
	return out
}

type Listing struct {
	ID         string    `json:"id"`
	CreatorID  string    `json:"creator_id"`
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Subject    string    `json:"subject,omitempty"`
	Active     bool      `json:"active"`
	HourlyRate string    `json:"hourly_rate"`
	CreatedAt  time.Time `json:"created_at"`
}

func ListingFrom(l *domainlistings.Listing) *Listing {
	if l == nil {
		return nil
	}
	return &Listing{
		ID:         string(l.ID),
		CreatorID:  l.CreatorID,
		Kind:       string(l.Kind),
		Title:      l.Title,
		Subject:    l.Subject,
		Active:     l.Active,
		HourlyRate: l.HourlyRate.StringFixed(2),
		CreatedAt:  l.CreatedAt,
	}
}

type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Profile struct {
	UserID        string        `json:"user_id"`
	Name          string        `json:"name"`
	TutorRating   RatingSummary `json:"tutor_rating"`
	StudentRating RatingSummary `json:"student_rating"`
}

func ProfileFrom(p *domainprofiles.Profile) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		UserID:        p.UserID,
		Name:          p.Name,
		TutorRating:   summary(p.TutorRating),
		StudentRating: summary(p.StudentRating),
	}
}

func summary(a domainratings.Aggregate) RatingSummary {
	return RatingSummary{Average: a.Average, Count: a.Count}
}

type Rating struct {
	ID        string `json:"id"`
	From      string `json:"from_user_id"`
	To        string `json:"to_user_id"`
	Type      string `json:"type"`
	Stars     int    `json:"stars"`
	Comment   string `json:"comment,omitempty"`
	BookingID string `json:"booking_id"`
}

func RatingFrom(r *domainratings.Rating) *Rating {
	if r == nil {
		return nil
	}
	return &Rating{
		ID:        string(r.ID),
		From:      r.FromUserID,
		To:        r.ToUserID,
		Type:      string(r.Type),
		Stars:     r.Stars,
		Comment:   r.Comment,
		BookingID: r.TargetID,
	}
}

type RatingOutcome struct {
	Outcome   string        `json:"outcome"`
	Rating    *Rating       `json:"rating,omitempty"`
	SubjectID string        `json:"subject_id,omitempty"`
	Aggregate RatingSummary `json:"aggregate"`
}

type DeletionReport struct {
	ListingID string   `json:"listing_id"`
	Cancelled []string `json:"cancelled"`
	Failed    []string `json:"failed,omitempty"`
	Skipped   int      `json:"skipped"`
}
