package ratings

import "skillbridge/internal/domain/shared/events"

type RatingSubmittedEvent struct {
	events.BaseEvent
	RatingID  RatingID `json:"rating_id"`
	From      string   `json:"from_user_id"`
	To        string   `json:"to_user_id"`
	Type      Type     `json:"type"`
	Stars     int      `json:"stars"`
	BookingID string   `json:"booking_id"`
}

type AggregateRecomputedEvent struct {
	events.BaseEvent
	UserID  string  `json:"user_id"`
	Type    Type    `json:"type"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
