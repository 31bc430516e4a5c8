package bookings

import (
	"context"
	"errors"
	"time"

	"skillbridge/internal/app/failure"
	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
)

// MarkPaid is called by the student once they have paid the tutor.
func (e *Engine) MarkPaid(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return e.payment(ctx, "mark_paid", id, domainbooking.PaymentPaid, func(tutor, student, actor string) bool {
		return actor == student
	})
}

// ConfirmPayment is called by the tutor once the money arrived.
func (e *Engine) ConfirmPayment(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return e.payment(ctx, "confirm_payment", id, domainbooking.PaymentConfirmed, func(tutor, student, actor string) bool {
		return actor == tutor
	})
}

func (e *Engine) payment(ctx context.Context, action string, id domainbooking.BookingID, to domainbooking.PaymentStatus, allowed func(tutor, student, actor string) bool) (*domainbooking.Booking, error) {
	authorize := func(b *domainbooking.Booking, actor string) bool {
		tutor, student := e.roles(ctx, b)
		return allowed(tutor, student, actor)
	}
	return e.transition(ctx, action, id, authorize, func(b *domainbooking.Booking, actor string, now time.Time) error {
		return b.AdvancePayment(to, now)
	})
}

// roles resolves tutor and student from the listing kind. A listing that can
// no longer be read falls back to the proposal layout, where the creator teaches.
func (e *Engine) roles(ctx context.Context, b *domainbooking.Booking) (tutor, student string) {
	listing, err := e.Listings.ByID(ctx, b.ListingID)
	if err != nil {
		if e.Logger != nil && !errors.Is(err, domainlistings.ErrListingNotFound) {
			e.Logger.Warn("listing lookup failed while resolving roles", "booking_id", b.ID, "error", err)
		}
		return b.ListingCreatorID, b.BookerID
	}
	return listing.Roles(b.BookerID)
}

// CompleteEnded marks every confirmed booking whose session ended before now
// as completed. It runs without a user; failures are logged per booking and
// do not stop the sweep.
func (e *Engine) CompleteEnded(ctx context.Context, now time.Time) (int, error) {
	const op = "bookings.complete_ended"
	due, err := e.Bookings.ListConfirmedEndedBefore(ctx, now)
	if err != nil {
		return 0, failure.Persistence(op, err)
	}
	completed := 0
	for _, b := range due {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		err := b.Complete(e.now())
		if err == nil {
			err = e.save(ctx, op, b)
		}
		if e.Metrics != nil {
			e.Metrics.BookingTransition("complete_ended", failure.KindOf(err))
		}
		if err != nil {
			if e.Logger != nil {
				e.Logger.Warn("auto-complete failed", "booking_id", b.ID, "error", err)
			}
			continue
		}
		completed++
	}
	if e.Logger != nil && completed > 0 {
		e.Logger.Info("sessions auto-completed", "count", completed, "due", len(due))
	}
	return completed, nil
}
