package bookings

import (
	"context"
	"fmt"
	"time"

	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/dto"
	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
)

type CreateBookingCommand struct {
	ListingID string    `validate:"required"`
	Start     time.Time `validate:"required"`
	End       time.Time `validate:"required"`
	RequestID string
}

func (CreateBookingCommand) Key() string        { return "bookings.create" }
func (CreateBookingCommand) RequiresUser() bool { return true }

// IdempotencyKey is scoped per user by the transport layer.
func (c CreateBookingCommand) IdempotencyKey() string { return c.RequestID }
func (CreateBookingCommand) ResultPrototype() any     { return &dto.Booking{} }

type CreateBookingHandler struct {
	Engine *Engine
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	b, err := h.Engine.Create(ctx, CreateParams{
		ListingID: domainlistings.ListingID(cmd.ListingID),
		Start:     cmd.Start,
		End:       cmd.End,
	})
	if err != nil {
		return nil, err
	}
	return dto.BookingFrom(b), nil
}

// Action names a user-driven change on an existing booking.
type Action string

const (
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionComplete       Action = "complete"
	ActionCancel         Action = "cancel"
	ActionMarkPaid       Action = "mark_paid"
	ActionConfirmPayment Action = "confirm_payment"
)

type TransitionBookingCommand struct {
	BookingID string `validate:"required"`
	Action    Action `validate:"required,oneof=approve reject complete cancel mark_paid confirm_payment"`
}

func (TransitionBookingCommand) Key() string        { return "bookings.transition" }
func (TransitionBookingCommand) RequiresUser() bool { return true }

type TransitionBookingHandler struct {
	Engine *Engine
}

func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*dto.Booking, error) {
	id := domainbooking.BookingID(cmd.BookingID)
	var (
		b   *domainbooking.Booking
		err error
	)
	switch cmd.Action {
	case ActionApprove:
		b, err = h.Engine.Approve(ctx, id)
	case ActionReject:
		b, err = h.Engine.Reject(ctx, id)
	case ActionComplete:
		b, err = h.Engine.Complete(ctx, id)
	case ActionCancel:
		b, err = h.Engine.Cancel(ctx, id)
	case ActionMarkPaid:
		b, err = h.Engine.MarkPaid(ctx, id)
	case ActionConfirmPayment:
		b, err = h.Engine.ConfirmPayment(ctx, id)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", bus.ErrInvalidMessage, cmd.Action)
	}
	if err != nil {
		return nil, err
	}
	return dto.BookingFrom(b), nil
}

var (
	_ bus.Handler[CreateBookingCommand, *dto.Booking]     = (*CreateBookingHandler)(nil)
	_ bus.Handler[TransitionBookingCommand, *dto.Booking] = (*TransitionBookingHandler)(nil)
)
