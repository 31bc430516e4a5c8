package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"skillbridge/internal/app/bookings"
	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/dto"
	"skillbridge/internal/app/failure"
	"skillbridge/internal/app/listings"
	"skillbridge/internal/app/ratings"
	"skillbridge/internal/app/screen"
	domainlistings "skillbridge/internal/domain/listings"
)

const IdempotencyHeader = "Idempotency-Key"

type ListingHandler struct {
	Screens  *screen.Orchestrator
	Commands bus.Bus
	Logger   *slog.Logger
}

type listingView struct {
	Listing             *dto.Listing            `json:"listing"`
	Creator             *dto.Profile            `json:"creator,omitempty"`
	IsOwner             bool                    `json:"is_owner"`
	Bookings            []dto.Booking           `json:"bookings,omitempty"`
	Bookers             map[string]*dto.Profile `json:"bookers,omitempty"`
	RatingPromptVisible bool                    `json:"rating_prompt_visible"`
}

func newListingView(st screen.State) listingView {
	view := listingView{
		Listing:             dto.ListingFrom(st.Listing),
		Creator:             dto.ProfileFrom(st.Creator),
		IsOwner:             st.IsOwner,
		RatingPromptVisible: st.RatingPromptVisible,
	}
	if st.IsOwner {
		view.Bookings = dto.BookingsFrom(st.Bookings)
		view.Bookers = make(map[string]*dto.Profile, len(st.Bookers))
		for id, p := range st.Bookers {
			view.Bookers[id] = dto.ProfileFrom(p)
		}
	}
	return view
}

// Get renders the listing screen for the caller. Owners also receive the
// bookings of the listing and the rating prompt flag.
func (h ListingHandler) Get(c *gin.Context) {
	session := h.Screens.NewSession()
	st := session.Load(c.Request.Context(), domainlistings.ListingID(c.Param("id")))
	if st.Phase == screen.PhaseLoadError {
		status := http.StatusInternalServerError
		code := "PERSISTENCE_FAILURE"
		if st.Error == screen.MsgListingNotFound {
			status = http.StatusNotFound
			code = "NOT_FOUND"
		}
		c.JSON(status, errorResponse{Error: code, Message: st.Error})
		return
	}
	c.JSON(http.StatusOK, newListingView(st))
}

func (h ListingHandler) Delete(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	cmd := listings.DeleteListingCommand{ListingID: c.Param("id")}
	report, err := bus.Dispatch[listings.DeleteListingCommand, *dto.DeletionReport](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err, deletionMessage(err))
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h ListingHandler) Deactivate(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	cmd := listings.DeactivateListingCommand{ListingID: c.Param("id")}
	listing, err := bus.Dispatch[listings.DeactivateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, listing)
}

type createBookingRequest struct {
	Start time.Time `json:"session_start" binding:"required"`
	End   time.Time `json:"session_end" binding:"required"`
}

// CreateBooking books a session on the listing. A repeated Idempotency-Key
// from the same user replays the first outcome.
func (h ListingHandler) CreateBooking(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "NOT_AUTHENTICATED", Message: screen.MsgNotLoggedIn})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "INVALID_BOOKING", Message: err.Error()})
		return
	}
	cmd := bookings.CreateBookingCommand{
		ListingID: c.Param("id"),
		Start:     req.Start,
		End:       req.End,
	}
	if key := c.GetHeader(IdempotencyHeader); key != "" {
		cmd.RequestID = user + ":" + key
	}
	booking, err := bus.Dispatch[bookings.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err, screen.BookingMessage(err))
		return
	}
	c.JSON(http.StatusCreated, booking)
}

type tutorRatingRequest struct {
	Stars int `json:"stars"`
}

// RateTutor lets the listing owner rate the other party of their most recent
// unrated completed booking.
func (h ListingHandler) RateTutor(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var req tutorRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "BAD_REQUEST", Message: err.Error()})
		return
	}
	cmd := ratings.SubmitRatingCommand{ListingID: c.Param("id"), Rater: ratings.RaterOwner, Stars: req.Stars}
	outcome, err := bus.Dispatch[ratings.SubmitRatingCommand, *dto.RatingOutcome](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusAccepted, outcome)
}

func deletionMessage(err error) string {
	if errors.Is(err, failure.ErrDeletionFailed) {
		return screen.MsgDeletionFailed
	}
	return ""
}

var _ ListingHTTP = ListingHandler{}
