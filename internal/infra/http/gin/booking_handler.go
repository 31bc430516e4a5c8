package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"skillbridge/internal/app/bookings"
	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/dto"
	"skillbridge/internal/app/ratings"
)

type BookingHandler struct {
	Commands bus.Bus
}

// Transition applies the action named in the path, e.g.
// POST /bookings/:id/transitions/approve or .../transitions/mark-paid.
func (h BookingHandler) Transition(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	cmd := bookings.TransitionBookingCommand{
		BookingID: c.Param("id"),
		Action:    bookings.Action(strings.ReplaceAll(c.Param("action"), "-", "_")),
	}
	booking, err := bus.Dispatch[bookings.TransitionBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, booking)
}

type bookerRatingRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	Stars     int    `json:"stars"`
	Comment   string `json:"comment"`
}

// Rate lets the booker rate the other party of one completed booking.
func (h BookingHandler) Rate(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var req bookerRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "BAD_REQUEST", Message: err.Error()})
		return
	}
	cmd := ratings.SubmitRatingCommand{
		ListingID: req.ListingID,
		BookingID: c.Param("id"),
		Rater:     ratings.RaterBooker,
		Stars:     req.Stars,
		Comment:   req.Comment,
	}
	outcome, err := bus.Dispatch[ratings.SubmitRatingCommand, *dto.RatingOutcome](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusAccepted, outcome)
}

var _ BookingHTTP = BookingHandler{}
