package ratings

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"skillbridge/internal/app/failure"
	"skillbridge/internal/app/identity"
	"skillbridge/internal/app/outbox"
	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
	domainprofiles "skillbridge/internal/domain/profiles"
	domainratings "skillbridge/internal/domain/ratings"
	"skillbridge/internal/domain/shared/events"
)

// Rater says which side of the booking is submitting.
type Rater string

const (
	RaterOwner  Rater = "owner"
	RaterBooker Rater = "booker"
)

type Outcome string

const (
	OutcomeSubmitted     Outcome = "SUBMITTED"
	OutcomeAlreadyRated  Outcome = "ALREADY_RATED"
	OutcomeNothingToRate Outcome = "NOTHING_TO_RATE"
	OutcomeNoListing     Outcome = "NO_LISTING"
	OutcomeFailed        Outcome = "FAILED"
)

type Metrics interface {
	RatingSubmitted(outcome string)
	AggregateRecomputed(t domainratings.Type, ok bool)
}

type SubmitParams struct {
	ListingID domainlistings.ListingID
	// BookingID narrows the candidates to one booking. Empty means the most
	// recent completed booking the rater still owes a rating for.
	BookingID domainbooking.BookingID
	Rater     Rater
	Stars     int
	Comment   string
}

// Result reports what a submission did. Err carries the absorbed failure, if
// any; callers are not expected to act on it.
type Result struct {
	Outcome   Outcome
	Rating    *domainratings.Rating
	SubjectID string
	Type      domainratings.Type
	Aggregate domainratings.Aggregate
	Err       error
}

// Engine records ratings for completed bookings and keeps profile aggregates
// in sync with the rating history. Nothing it does is reported as an error.
type Engine struct {
	Listings domainlistings.Repository
	Bookings domainbooking.Repository
	Ratings  domainratings.Repository
	Profiles domainprofiles.Repository
	Identity identity.Provider
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Metrics  Metrics
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

// SubmitTutorRating is the listing owner rating the other party of their
// latest unrated completed session.
func (e *Engine) SubmitTutorRating(ctx context.Context, listingID domainlistings.ListingID, stars int) Result {
	return e.Submit(ctx, SubmitParams{ListingID: listingID, Rater: RaterOwner, Stars: stars})
}

// SubmitBookerRating is the booker rating the listing owner.
func (e *Engine) SubmitBookerRating(ctx context.Context, listingID domainlistings.ListingID, bookingID domainbooking.BookingID, stars int, comment string) Result {
	return e.Submit(ctx, SubmitParams{ListingID: listingID, BookingID: bookingID, Rater: RaterBooker, Stars: stars, Comment: comment})
}

func (e *Engine) Submit(ctx context.Context, p SubmitParams) Result {
	res := e.submit(ctx, p)
	if e.Metrics != nil {
		e.Metrics.RatingSubmitted(string(res.Outcome))
	}
	if res.Err != nil {
		e.log().Warn("rating submission dropped",
			"listing_id", p.ListingID,
			"rater", p.Rater,
			"outcome", res.Outcome,
			"error", res.Err)
	}
	return res
}

func (e *Engine) submit(ctx context.Context, p SubmitParams) Result {
	const op = "ratings.submit"
	actor, err := identity.Require(ctx, e.Identity, op)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	if p.ListingID == "" {
		return Result{Outcome: OutcomeNoListing}
	}
	listing, err := e.Listings.ByID(ctx, p.ListingID)
	if err != nil {
		if errors.Is(err, domainlistings.ErrListingNotFound) {
			return Result{Outcome: OutcomeNoListing}
		}
		return Result{Outcome: OutcomeFailed, Err: failure.Persistence(op, err)}
	}
	if p.Rater == RaterOwner && !listing.OwnedBy(actor) {
		return Result{Outcome: OutcomeFailed, Err: failure.New(failure.KindUnauthorized, op, nil)}
	}

	bookings, err := e.Bookings.ListByListing(ctx, listing.ID)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: failure.Persistence(op, err)}
	}
	candidates := e.candidates(listing, bookings, actor, p)
	if len(candidates) == 0 {
		return Result{Outcome: OutcomeNothingToRate}
	}

	var (
		target *domainbooking.Booking
		key    domainratings.Key
	)
	for _, b := range candidates {
		k := ratingKey(listing, b, actor)
		if !e.rated(ctx, k) {
			target, key = b, k
			break
		}
	}
	if target == nil {
		return Result{Outcome: OutcomeAlreadyRated}
	}

	rating, err := domainratings.New(domainratings.CreateParams{
		ID:        domainratings.RatingID(e.newID()),
		Key:       key,
		Stars:     p.Stars,
		Comment:   p.Comment,
		ListingID: string(listing.ID),
		Now:       e.now(),
	})
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: failure.New(failure.KindInvalidBooking, op, err)}
	}
	if err := e.Ratings.Add(ctx, rating); err != nil {
		if errors.Is(err, domainratings.ErrDuplicateRating) {
			return Result{Outcome: OutcomeAlreadyRated, SubjectID: key.ToUserID, Type: key.Type}
		}
		return Result{Outcome: OutcomeFailed, Err: failure.Persistence(op, err)}
	}
	if err := outbox.Drain(ctx, e.Outbox, e.Encoder, rating); err != nil {
		e.log().Warn("rating event not recorded", "rating_id", rating.ID, "error", err)
	}
	e.log().Info("rating submitted",
		"rating_id", rating.ID,
		"booking_id", rating.TargetID,
		"from", rating.FromUserID,
		"to", rating.ToUserID,
		"type", rating.Type,
		"stars", rating.Stars)

	res := Result{Outcome: OutcomeSubmitted, Rating: rating, SubjectID: key.ToUserID, Type: key.Type}
	res.Aggregate, res.Err = e.Recompute(ctx, key.ToUserID, key.Type)
	return res
}

// candidates returns the completed bookings of listing that actor took part
// in on the given side, most recently ended first.
func (e *Engine) candidates(listing *domainlistings.Listing, bookings []*domainbooking.Booking, actor string, p SubmitParams) []*domainbooking.Booking {
	out := make([]*domainbooking.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b == nil || b.Status != domainbooking.StatusCompleted {
			continue
		}
		if p.BookingID != "" && b.ID != p.BookingID {
			continue
		}
		switch p.Rater {
		case RaterOwner:
			if !listing.OwnedBy(actor) {
				continue
			}
		case RaterBooker:
			if b.BookerID != actor {
				continue
			}
		default:
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Session.End.Equal(out[j].Session.End) {
			return out[i].Session.End.After(out[j].Session.End)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ratingKey builds the uniqueness tuple for actor rating the other party of
// b. The type follows the role the rated user played in the session.
func ratingKey(listing *domainlistings.Listing, b *domainbooking.Booking, actor string) domainratings.Key {
	subject := b.BookerID
	if actor == b.BookerID {
		subject = b.ListingCreatorID
	}
	tutor, _ := listing.Roles(b.BookerID)
	t := domainratings.TypeStudent
	if subject == tutor {
		t = domainratings.TypeTutor
	}
	return domainratings.Key{FromUserID: actor, ToUserID: subject, Type: t, TargetID: string(b.ID)}
}

// rated treats a failed lookup as not rated.
func (e *Engine) rated(ctx context.Context, key domainratings.Key) bool {
	ok, err := e.Ratings.HasRating(ctx, key)
	if err != nil {
		e.log().Warn("rating lookup failed, assuming unrated",
			"booking_id", key.TargetID,
			"from", key.FromUserID,
			"error", err)
		return false
	}
	return ok
}

// Recompute rebuilds the aggregate of userID for t from the full history and
// stores it on the profile.
func (e *Engine) Recompute(ctx context.Context, userID string, t domainratings.Type) (domainratings.Aggregate, error) {
	const op = "ratings.recompute"
	history, err := e.Ratings.ListByUserAndType(ctx, userID, t)
	if err != nil {
		e.observeRecompute(t, false)
		return domainratings.Aggregate{}, failure.Persistence(op, err)
	}
	agg := domainratings.ComputeFrom(history)
	if err := e.Profiles.UpdateAggregate(ctx, userID, t, agg); err != nil {
		e.observeRecompute(t, false)
		return agg, failure.Persistence(op, err)
	}
	e.observeRecompute(t, true)

	ev := domainratings.AggregateRecomputedEvent{
		BaseEvent: events.NewBase("profile.rating_recomputed", userID, e.now()),
		UserID:    userID,
		Type:      t,
		Average:   agg.Average,
		Count:     agg.Count,
	}
	if err := outbox.RecordDomainEvents(ctx, e.Outbox, e.Encoder, []events.DomainEvent{ev}); err != nil {
		e.log().Warn("aggregate event not recorded", "user_id", userID, "error", err)
	}
	e.log().Debug("aggregate recomputed", "user_id", userID, "type", t, "average", agg.Average, "count", agg.Count)
	return agg, nil
}

// Owed reports whether userID, as the owner of listing, still owes a rating
// for at least one completed booking in bookings.
func (e *Engine) Owed(ctx context.Context, listing *domainlistings.Listing, bookings []*domainbooking.Booking, userID string) bool {
	if listing == nil || !listing.OwnedBy(userID) {
		return false
	}
	for _, b := range e.candidates(listing, bookings, userID, SubmitParams{Rater: RaterOwner}) {
		if !e.rated(ctx, ratingKey(listing, b, userID)) {
			return true
		}
	}
	return false
}

func (e *Engine) observeRecompute(t domainratings.Type, ok bool) {
	if e.Metrics != nil {
		e.Metrics.AggregateRecomputed(t, ok)
	}
}

func (e *Engine) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}
