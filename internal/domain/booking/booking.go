package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"skillbridge/internal/domain/listings"
	"skillbridge/internal/domain/shared/events"
	"skillbridge/internal/domain/shared/session"
)

var (
	ErrBookingNotFound    = errors.New("booking: booking not found")
	ErrInvalidSession     = errors.New("booking: session start must be before session end")
	ErrSelfBooking        = errors.New("booking: listing creator and booker must be different users")
	ErrNegativePrice      = errors.New("booking: price must be non-negative")
	ErrMissingParty       = errors.New("booking: listing, creator and booker ids are required")
	ErrInvalidTransition  = errors.New("booking: invalid status transition")
	ErrInvalidPayment     = errors.New("booking: invalid payment status transition")
	ErrConcurrentUpdate   = errors.New("booking: concurrent update detected")
	ErrDuplicateBookingID = errors.New("booking: booking id already exists")
)

type BookingID string

// Booking is a session reserved by BookerID on a listing owned by ListingCreatorID.
type Booking struct {
	ID               BookingID
	ListingID        listings.ListingID
	ListingCreatorID string
	BookerID         string
	Session          session.Range
	Status           Status
	Payment          PaymentStatus
	Price            decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64

	events.EventRecorder
}

type CreateParams struct {
	ID               BookingID
	ListingID        listings.ListingID
	ListingCreatorID string
	BookerID         string
	Start            time.Time
	End              time.Time
	Price            decimal.Decimal
	Now              time.Time
}

func New(p CreateParams) (*Booking, error) {
	now := p.Now.UTC()
	b := &Booking{
		ID:               p.ID,
		ListingID:        p.ListingID,
		ListingCreatorID: p.ListingCreatorID,
		BookerID:         p.BookerID,
		Session:          session.Range{Start: p.Start.UTC(), End: p.End.UTC()},
		Status:           StatusPending,
		Payment:          PaymentPending,
		Price:            p.Price,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	b.Record(BookingRequestedEvent{
		BookingID: b.ID,
		ListingID: b.ListingID,
		CreatorID: b.ListingCreatorID,
		BookerID:  b.BookerID,
		Start:     b.Session.Start,
		End:       b.Session.End,
		Price:     b.Price.StringFixed(2),
		At:        now,
	})
	return b, nil
}

// Validate checks the structural invariants. It runs at construction and
// again before every write.
func (b *Booking) Validate() error {
	if b.ListingID == "" || strings.TrimSpace(b.ListingCreatorID) == "" || strings.TrimSpace(b.BookerID) == "" {
		return ErrMissingParty
	}
	if err := b.Session.Validate(); err != nil {
		return ErrInvalidSession
	}
	if b.ListingCreatorID == b.BookerID {
		return ErrSelfBooking
	}
	if b.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

func (b *Booking) Involves(userID string) bool {
	return userID != "" && (b.BookerID == userID || b.ListingCreatorID == userID)
}

func (b *Booking) Confirm(now time.Time) error {
	if err := b.moveTo(StatusConfirmed, now); err != nil {
		return err
	}
	b.Record(BookingConfirmedEvent{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if err := b.moveTo(StatusCompleted, now); err != nil {
		return err
	}
	b.Record(BookingCompletedEvent{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

// Cancel covers both a rejection by the listing creator and a withdrawal by
// either party. by is empty when the system cancels.
func (b *Booking) Cancel(now time.Time, by string) error {
	if err := b.moveTo(StatusCancelled, now); err != nil {
		return err
	}
	b.Record(BookingCancelledEvent{BookingID: b.ID, ListingID: b.ListingID, CancelledBy: by, At: b.UpdatedAt})
	return nil
}

// AdvancePayment moves PENDING_PAYMENT -> PAID -> CONFIRMED one step at a time.
func (b *Booking) AdvancePayment(to PaymentStatus, now time.Time) error {
	if b.Status == StatusCancelled || b.Payment.next() != to {
		return ErrInvalidPayment
	}
	b.Payment = to
	b.UpdatedAt = now.UTC()
	b.Record(BookingPaymentUpdatedEvent{BookingID: b.ID, Payment: to, At: b.UpdatedAt})
	return nil
}

func (b *Booking) moveTo(next Status, now time.Time) error {
	if !b.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	return nil
}

// Repository is the booking persistence port.
//
// UpdateStatus writes the status and payment fields only when the stored
// version still equals b.Version, and bumps b.Version on success. A stale
// write fails with ErrConcurrentUpdate.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
	UpdateStatus(ctx context.Context, b *Booking) error
	ListConfirmedEndedBefore(ctx context.Context, t time.Time) ([]*Booking, error)
}
