package booking

import (
	"time"

	"skillbridge/internal/domain/listings"
)

type BookingRequestedEvent struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	CreatorID string             `json:"listing_creator_id"`
	BookerID  string             `json:"booker_id"`
	Start     time.Time          `json:"session_start"`
	End       time.Time          `json:"session_end"`
	Price     string             `json:"price"`
	At        time.Time          `json:"at"`
}

func (e BookingRequestedEvent) EventName() string     { return "booking.requested" }
func (e BookingRequestedEvent) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequestedEvent) OccurredAt() time.Time { return e.At }

type BookingConfirmedEvent struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	At        time.Time          `json:"at"`
}

func (e BookingConfirmedEvent) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmedEvent) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmedEvent) OccurredAt() time.Time { return e.At }

type BookingCancelledEvent struct {
	BookingID   BookingID          `json:"booking_id"`
	ListingID   listings.ListingID `json:"listing_id"`
	CancelledBy string             `json:"cancelled_by,omitempty"`
	At          time.Time          `json:"at"`
}

func (e BookingCancelledEvent) EventName() string     { return "booking.cancelled" }
func (e BookingCancelledEvent) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelledEvent) OccurredAt() time.Time { return e.At }

type BookingCompletedEvent struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	At        time.Time          `json:"at"`
}

func (e BookingCompletedEvent) EventName() string     { return "booking.completed" }
func (e BookingCompletedEvent) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompletedEvent) OccurredAt() time.Time { return e.At }

type BookingPaymentUpdatedEvent struct {
	BookingID BookingID     `json:"booking_id"`
	Payment   PaymentStatus `json:"payment_status"`
	At        time.Time     `json:"at"`
}

func (e BookingPaymentUpdatedEvent) EventName() string     { return "booking.payment_updated" }
func (e BookingPaymentUpdatedEvent) AggregateID() string   { return string(e.BookingID) }
func (e BookingPaymentUpdatedEvent) OccurredAt() time.Time { return e.At }
