package listings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"skillbridge/internal/app/failure"
	"skillbridge/internal/app/identity"
	"skillbridge/internal/app/outbox"
	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
)

// Canceller cancels one booking on behalf of the user in ctx.
type Canceller interface {
	Cancel(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error)
}

type Metrics interface {
	CascadeCancellation(ok bool)
}

// Report describes what a deletion actually did. Cancelled and Failed hold
// booking ids; Skipped counts bookings that were already terminal.
type Report struct {
	ListingID domainlistings.ListingID
	Cancelled []domainbooking.BookingID
	Failed    []domainbooking.BookingID
	Skipped   int
	FetchErr  error
}

// Cascade deletes a listing after cancelling its live bookings. The steps are
// applied one by one and never rolled back.
type Cascade struct {
	Listings  domainlistings.Repository
	Bookings  domainbooking.Repository
	Canceller Canceller
	Identity  identity.Provider
	Outbox    outbox.Outbox
	Encoder   outbox.EventEncoder
	Metrics   Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

func (c *Cascade) DeleteListing(ctx context.Context, id domainlistings.ListingID) (Report, error) {
	const op = "listings.delete"
	report := Report{ListingID: id}

	actor, err := identity.Require(ctx, c.Identity, op)
	if err != nil {
		return report, err
	}
	listing, err := c.Listings.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainlistings.ErrListingNotFound) {
			return report, failure.New(failure.KindNotFound, op, err)
		}
		return report, failure.Persistence(op, err)
	}
	if !listing.OwnedBy(actor) {
		return report, failure.New(failure.KindUnauthorized, op, nil)
	}

	bookings, err := c.Bookings.ListByListing(ctx, id)
	if err != nil {
		report.FetchErr = err
		c.warn("booking fetch failed, deleting listing without cascade", "listing_id", id, "error", err)
		bookings = nil
	}

	for _, b := range bookings {
		if b.Status.IsTerminal() {
			report.Skipped++
			continue
		}
		if _, err := c.Canceller.Cancel(ctx, b.ID); err != nil {
			report.Failed = append(report.Failed, b.ID)
			c.observe(false)
			c.warn("cascade cancellation failed", "listing_id", id, "booking_id", b.ID, "status", b.Status, "error", err)
			continue
		}
		report.Cancelled = append(report.Cancelled, b.ID)
		c.observe(true)
	}

	if err := c.Listings.Delete(ctx, id); err != nil {
		if c.Logger != nil {
			c.Logger.Error("listing delete failed after cascade",
				"listing_id", id,
				"cancelled", len(report.Cancelled),
				"failed", len(report.Failed),
				"error", err)
		}
		return report, failure.New(failure.KindDeletionFailed, op, err)
	}

	listing.MarkDeleted(c.now(), len(report.Cancelled))
	if err := outbox.Drain(ctx, c.Outbox, c.Encoder, listing); err != nil {
		c.warn("listing deletion event not recorded", "listing_id", id, "error", err)
	}
	if c.Logger != nil {
		c.Logger.Info("listing deleted",
			"listing_id", id,
			"cancelled", len(report.Cancelled),
			"failed", len(report.Failed),
			"skipped", report.Skipped)
	}
	return report, nil
}

func (c *Cascade) observe(ok bool) {
	if c.Metrics != nil {
		c.Metrics.CascadeCancellation(ok)
	}
}

func (c *Cascade) warn(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}

func (c *Cascade) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}
