package ratings

import (
	"context"

	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/dto"
	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
)

// SubmitRatingCommand carries an unclamped star value; the engine clamps it.
type SubmitRatingCommand struct {
	ListingID string `validate:"required"`
	BookingID string
	Rater     Rater `validate:"required,oneof=owner booker"`
	Stars     int
	Comment   string
}

func (SubmitRatingCommand) Key() string        { return "ratings.submit" }
func (SubmitRatingCommand) RequiresUser() bool { return true }

type SubmitRatingHandler struct {
	Engine *Engine
}

// Handle never fails: the outcome says what happened.
func (h *SubmitRatingHandler) Handle(ctx context.Context, cmd SubmitRatingCommand) (*dto.RatingOutcome, error) {
	res := h.Engine.Submit(ctx, SubmitParams{
		ListingID: domainlistings.ListingID(cmd.ListingID),
		BookingID: domainbooking.BookingID(cmd.BookingID),
		Rater:     cmd.Rater,
		Stars:     cmd.Stars,
		Comment:   cmd.Comment,
	})
	return &dto.RatingOutcome{
		Outcome:   string(res.Outcome),
		Rating:    dto.RatingFrom(res.Rating),
		SubjectID: res.SubjectID,
		Aggregate: dto.RatingSummary{Average: res.Aggregate.Average, Count: res.Aggregate.Count},
	}, nil
}

var _ bus.Handler[SubmitRatingCommand, *dto.RatingOutcome] = (*SubmitRatingHandler)(nil)
