package listings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/dto"
	"skillbridge/internal/app/failure"
	"skillbridge/internal/app/identity"
	"skillbridge/internal/app/outbox"
	domainlistings "skillbridge/internal/domain/listings"
)

type DeleteListingCommand struct {
	ListingID string `validate:"required"`
}

func (DeleteListingCommand) Key() string        { return "listings.delete" }
func (DeleteListingCommand) RequiresUser() bool { return true }

type DeleteListingHandler struct {
	Cascade *Cascade
}

func (h *DeleteListingHandler) Handle(ctx context.Context, cmd DeleteListingCommand) (*dto.DeletionReport, error) {
	report, err := h.Cascade.DeleteListing(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	out := &dto.DeletionReport{ListingID: string(report.ListingID), Skipped: report.Skipped, Cancelled: []string{}}
	for _, id := range report.Cancelled {
		out.Cancelled = append(out.Cancelled, string(id))
	}
	for _, id := range report.Failed {
		out.Failed = append(out.Failed, string(id))
	}
	return out, nil
}

type DeactivateListingCommand struct {
	ListingID string `validate:"required"`
}

func (DeactivateListingCommand) Key() string        { return "listings.deactivate" }
func (DeactivateListingCommand) RequiresUser() bool { return true }

// DeactivateListingHandler stops a listing from taking new bookings. Existing
// bookings are left alone.
type DeactivateListingHandler struct {
	Listings domainlistings.Repository
	Identity identity.Provider
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Now      func() time.Time
}

func (h *DeactivateListingHandler) Handle(ctx context.Context, cmd DeactivateListingCommand) (*dto.Listing, error) {
	const op = "listings.deactivate"
	actor, err := identity.Require(ctx, h.Identity, op)
	if err != nil {
		return nil, err
	}
	listing, err := h.Listings.ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		if errors.Is(err, domainlistings.ErrListingNotFound) {
			return nil, failure.New(failure.KindNotFound, op, err)
		}
		return nil, failure.Persistence(op, err)
	}
	if !listing.OwnedBy(actor) {
		return nil, failure.New(failure.KindUnauthorized, op, nil)
	}
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	if err := listing.Deactivate(now); err != nil {
		if errors.Is(err, domainlistings.ErrAlreadyInactive) {
			return dto.ListingFrom(listing), nil
		}
		return nil, err
	}
	if err := h.Listings.Save(ctx, listing); err != nil {
		return nil, failure.Persistence(op, err)
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, listing); err != nil && h.Logger != nil {
		h.Logger.Warn("listing events not recorded", "listing_id", listing.ID, "error", err)
	}
	if h.Logger != nil {
		h.Logger.Info("listing deactivated", "listing_id", listing.ID, "creator_id", actor)
	}
	return dto.ListingFrom(listing), nil
}

var (
	_ bus.Handler[DeleteListingCommand, *dto.DeletionReport] = (*DeleteListingHandler)(nil)
	_ bus.Handler[DeactivateListingCommand, *dto.Listing]    = (*DeactivateListingHandler)(nil)
)
