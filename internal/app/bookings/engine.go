package bookings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"skillbridge/internal/app/failure"
	"skillbridge/internal/app/identity"
	"skillbridge/internal/app/outbox"
	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
	"skillbridge/internal/domain/shared/session"
)

var ErrListingInactive = errors.New("bookings: listing is not accepting bookings")

// Metrics receives one observation per attempted status or payment change.
type Metrics interface {
	BookingTransition(action string, kind failure.Kind)
}

// Engine creates bookings and moves them through their lifecycle. Every
// method reads the actor from ctx through Identity.
type Engine struct {
	Listings domainlistings.Repository
	Bookings domainbooking.Repository
	Identity identity.Provider
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Metrics  Metrics
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

type CreateParams struct {
	ListingID domainlistings.ListingID
	Start     time.Time
	End       time.Time
}

func (e *Engine) Create(ctx context.Context, p CreateParams) (*domainbooking.Booking, error) {
	const op = "bookings.create"
	bookerID, err := identity.Require(ctx, e.Identity, op)
	if err != nil {
		return nil, err
	}
	listing, err := e.Listings.ByID(ctx, p.ListingID)
	if err != nil {
		if errors.Is(err, domainlistings.ErrListingNotFound) {
			return nil, failure.New(failure.KindNotFound, op, err)
		}
		return nil, failure.Persistence(op, err)
	}
	if listing.OwnedBy(bookerID) {
		return nil, failure.New(failure.KindSelfBookingForbidden, op, domainbooking.ErrSelfBooking)
	}
	if !listing.Active {
		return nil, failure.New(failure.KindInvalidBooking, op, ErrListingInactive)
	}

	rng := session.Range{Start: p.Start.UTC(), End: p.End.UTC()}
	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:               domainbooking.BookingID(e.newID()),
		ListingID:        listing.ID,
		ListingCreatorID: listing.CreatorID,
		BookerID:         bookerID,
		Start:            rng.Start,
		End:              rng.End,
		Price:            session.Price(listing.HourlyRate, rng),
		Now:              e.now(),
	})
	if err != nil {
		return nil, failure.New(failure.KindInvalidBooking, op, err)
	}
	if err := e.Bookings.Create(ctx, b); err != nil {
		return nil, failure.Persistence(op, err)
	}
	e.publish(ctx, op, b)
	if e.Logger != nil {
		e.Logger.Info("booking requested",
			"booking_id", b.ID,
			"listing_id", b.ListingID,
			"booker_id", b.BookerID,
			"price", b.Price.StringFixed(2))
	}
	return b, nil
}

// Approve confirms a pending booking. Only the listing creator may approve.
func (e *Engine) Approve(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return e.transition(ctx, "approve", id, creatorOnly, func(b *domainbooking.Booking, actor string, now time.Time) error {
		return b.Confirm(now)
	})
}

// Reject cancels a pending booking on behalf of the listing creator.
func (e *Engine) Reject(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return e.transition(ctx, "reject", id, creatorOnly, func(b *domainbooking.Booking, actor string, now time.Time) error {
		if b.Status != domainbooking.StatusPending {
			return domainbooking.ErrInvalidTransition
		}
		return b.Cancel(now, actor)
	})
}

// Complete marks a confirmed session as finished. Either participant may do it.
func (e *Engine) Complete(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return e.transition(ctx, "complete", id, participant, func(b *domainbooking.Booking, actor string, now time.Time) error {
		return b.Complete(now)
	})
}

// Cancel withdraws a non-terminal booking. Either participant may do it.
func (e *Engine) Cancel(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return e.transition(ctx, "cancel", id, participant, func(b *domainbooking.Booking, actor string, now time.Time) error {
		return b.Cancel(now, actor)
	})
}

type authorizeFunc func(b *domainbooking.Booking, actor string) bool

func creatorOnly(b *domainbooking.Booking, actor string) bool {
	return b.ListingCreatorID == actor
}

func participant(b *domainbooking.Booking, actor string) bool {
	return b.Involves(actor)
}

type applyFunc func(b *domainbooking.Booking, actor string, now time.Time) error

func (e *Engine) transition(ctx context.Context, action string, id domainbooking.BookingID, allowed authorizeFunc, apply applyFunc) (*domainbooking.Booking, error) {
	op := "bookings." + action
	b, err := e.do(ctx, op, id, allowed, apply)
	if e.Metrics != nil {
		e.Metrics.BookingTransition(action, failure.KindOf(err))
	}
	if err != nil {
		return nil, err
	}
	if e.Logger != nil {
		e.Logger.Info("booking updated",
			"action", action,
			"booking_id", b.ID,
			"status", b.Status,
			"payment", b.Payment,
			"version", b.Version)
	}
	return b, nil
}

func (e *Engine) do(ctx context.Context, op string, id domainbooking.BookingID, allowed authorizeFunc, apply applyFunc) (*domainbooking.Booking, error) {
	actor, err := identity.Require(ctx, e.Identity, op)
	if err != nil {
		return nil, err
	}
	b, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if !allowed(b, actor) {
		return nil, failure.New(failure.KindUnauthorized, op, nil)
	}
	if err := apply(b, actor, e.now()); err != nil {
		return nil, failure.New(failure.KindInvalidBooking, op, err)
	}
	if err := e.save(ctx, op, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (e *Engine) load(ctx context.Context, op string, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	b, err := e.Bookings.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			return nil, failure.New(failure.KindNotFound, op, err)
		}
		return nil, failure.Persistence(op, err)
	}
	return b, nil
}

// save re-checks the invariants, writes with the version guard and hands
// the recorded events to the outbox.
func (e *Engine) save(ctx context.Context, op string, b *domainbooking.Booking) error {
	if err := b.Validate(); err != nil {
		return failure.New(failure.KindInvalidBooking, op, err)
	}
	if err := e.Bookings.UpdateStatus(ctx, b); err != nil {
		switch {
		case errors.Is(err, domainbooking.ErrConcurrentUpdate):
			return failure.New(failure.KindConflict, op, err)
		case errors.Is(err, domainbooking.ErrBookingNotFound):
			return failure.New(failure.KindNotFound, op, err)
		}
		return failure.Persistence(op, err)
	}
	e.publish(ctx, op, b)
	return nil
}

// publish drains b's events into the outbox. The write already happened, so a
// failure here is only logged.
func (e *Engine) publish(ctx context.Context, op string, b *domainbooking.Booking) {
	if err := outbox.Drain(ctx, e.Outbox, e.Encoder, b); err != nil && e.Logger != nil {
		e.Logger.Warn("booking events not recorded", "op", op, "booking_id", b.ID, "error", err)
	}
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
