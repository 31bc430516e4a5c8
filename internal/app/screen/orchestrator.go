// Package screen composes the booking, deletion and rating engines into the
// observable state a listing detail view renders.
package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"skillbridge/internal/app/bookings"
	"skillbridge/internal/app/failure"
	"skillbridge/internal/app/identity"
	"skillbridge/internal/app/listings"
	"skillbridge/internal/app/ratings"
	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
	domainprofiles "skillbridge/internal/domain/profiles"
)

// User-facing messages.
const (
	MsgListingNotFound   = "Listing not found"
	MsgListingLoadFailed = "Failed to load listing"
	MsgNotLoggedIn       = "must be logged in"
	MsgSelfBooking       = "cannot book your own listing"
	MsgInvalidBooking    = "invalid booking"
	MsgBookingFailed     = "failed to create booking"
	MsgDeletionFailed    = "failed to delete listing"
)

type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseLoading   Phase = "LOADING"
	PhaseLoaded    Phase = "LOADED"
	PhaseLoadError Phase = "LOAD_ERROR"
)

type BookingPhase string

const (
	BookingIdle       BookingPhase = "IDLE"
	BookingInProgress BookingPhase = "IN_PROGRESS"
	BookingSuccess    BookingPhase = "SUCCESS"
	BookingError      BookingPhase = "ERROR"
)

type DeletionPhase string

const (
	DeletionIdle       DeletionPhase = "IDLE"
	DeletionInProgress DeletionPhase = "IN_PROGRESS"
	DeletionDeleted    DeletionPhase = "DELETED"
	DeletionError      DeletionPhase = "ERROR"
)

// State is one snapshot of a screen session. Snapshots handed out by a
// Session are copies and safe to keep.
type State struct {
	Phase         Phase
	Error         string
	Listing       *domainlistings.Listing
	Creator       *domainprofiles.Profile
	CurrentUserID string
	IsOwner       bool

	Bookings        []*domainbooking.Booking
	BookingsLoading bool
	Bookers         map[string]*domainprofiles.Profile

	Booking      BookingPhase
	BookingError string
	LastBooking  *domainbooking.Booking

	Deletion      DeletionPhase
	DeletionError string

	RatingPromptVisible bool
}

func (s State) clone() State {
	out := s
	if s.Bookings != nil {
		out.Bookings = append([]*domainbooking.Booking(nil), s.Bookings...)
	}
	if s.Bookers != nil {
		out.Bookers = make(map[string]*domainprofiles.Profile, len(s.Bookers))
		for k, v := range s.Bookers {
			out.Bookers[k] = v
		}
	}
	return out
}

type ListingReader interface {
	ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error)
}

type BookingReader interface {
	ListByListing(ctx context.Context, id domainlistings.ListingID) ([]*domainbooking.Booking, error)
}

type ProfileReader interface {
	ByID(ctx context.Context, userID string) (*domainprofiles.Profile, error)
}

type BookingEngine interface {
	Create(ctx context.Context, p bookings.CreateParams) (*domainbooking.Booking, error)
	Approve(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error)
	Reject(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error)
}

type DeletionCascade interface {
	DeleteListing(ctx context.Context, id domainlistings.ListingID) (listings.Report, error)
}

type RatingEngine interface {
	SubmitTutorRating(ctx context.Context, listingID domainlistings.ListingID, stars int) ratings.Result
	Owed(ctx context.Context, listing *domainlistings.Listing, bookings []*domainbooking.Booking, userID string) bool
}

// Orchestrator holds the collaborators shared by every screen session.
type Orchestrator struct {
	Listings ListingReader
	Bookings BookingReader
	Profiles ProfileReader
	Identity identity.Provider
	Engine   BookingEngine
	Cascade  DeletionCascade
	Ratings  RatingEngine
	Logger   *slog.Logger
}

// NewSession starts an idle session.
func (o *Orchestrator) NewSession() *Session {
	return &Session{
		o:       o,
		state:   State{Phase: PhaseIdle, Booking: BookingIdle, Deletion: DeletionIdle},
		updates: make(chan State, 1),
	}
}

// Session is the state machine behind one open listing screen. Operations
// may run concurrently; each one is a short sequence of port calls and the
// state lock is never held across them.
type Session struct {
	o       *Orchestrator
	mu      sync.Mutex
	state   State
	updates chan State
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Updates delivers the latest snapshot after every change. Intermediate
// snapshots are dropped when the reader falls behind.
func (s *Session) Updates() <-chan State {
	return s.updates
}

func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	snap := s.state.clone()
	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}

// Load fetches the listing and everything the screen shows next to it.
func (s *Session) Load(ctx context.Context, id domainlistings.ListingID) State {
	s.update(func(st *State) {
		st.Phase = PhaseLoading
		st.Error = ""
	})

	listing, err := s.o.Listings.ByID(ctx, id)
	if err != nil {
		msg := MsgListingNotFound
		if !errors.Is(err, domainlistings.ErrListingNotFound) {
			msg = MsgListingLoadFailed
			s.log().Warn("listing load failed", "listing_id", id, "error", err)
		}
		s.update(func(st *State) {
			st.Phase = PhaseLoadError
			st.Error = msg
			st.Listing = nil
			st.Creator = nil
			st.IsOwner = false
			st.Bookings = nil
			st.Bookers = nil
			st.BookingsLoading = false
			st.RatingPromptVisible = false
		})
		return s.State()
	}

	creator, err := s.o.Profiles.ByID(ctx, listing.CreatorID)
	if err != nil {
		creator = nil
		if !errors.Is(err, domainprofiles.ErrProfileNotFound) {
			s.log().Warn("creator profile unavailable", "listing_id", id, "creator_id", listing.CreatorID, "error", err)
		}
	}
	userID, _ := s.currentUser(ctx)
	owner := listing.OwnedBy(userID)

	s.update(func(st *State) {
		st.Phase = PhaseLoaded
		st.Listing = listing
		st.Creator = creator
		st.CurrentUserID = userID
		st.IsOwner = owner
		st.Bookings = nil
		st.Bookers = nil
		st.RatingPromptVisible = false
	})
	if owner {
		s.refreshBookings(ctx, listing)
	}
	return s.State()
}

// refreshBookings reloads the owner view: bookings, booker profiles and the
// rating prompt. Failures leave the previous values in place.
func (s *Session) refreshBookings(ctx context.Context, listing *domainlistings.Listing) {
	s.update(func(st *State) { st.BookingsLoading = true })

	list, err := s.o.Bookings.ListByListing(ctx, listing.ID)
	if err != nil {
		s.log().Warn("listing bookings unavailable", "listing_id", listing.ID, "error", err)
		s.update(func(st *State) { st.BookingsLoading = false })
		return
	}

	bookers := make(map[string]*domainprofiles.Profile)
	for _, b := range list {
		if _, seen := bookers[b.BookerID]; seen {
			continue
		}
		p, err := s.o.Profiles.ByID(ctx, b.BookerID)
		if err != nil {
			if !errors.Is(err, domainprofiles.ErrProfileNotFound) {
				s.log().Warn("booker profile unavailable", "booker_id", b.BookerID, "error", err)
			}
			continue
		}
		bookers[b.BookerID] = p
	}

	userID, _ := s.currentUser(ctx)
	prompt := s.o.Ratings != nil && s.o.Ratings.Owed(ctx, listing, list, userID)

	s.update(func(st *State) {
		st.Bookings = list
		st.Bookers = bookers
		st.BookingsLoading = false
		st.RatingPromptVisible = prompt
	})
}

// CreateBooking books the loaded listing for the current user. The outcome
// is reported through the booking sub-state.
func (s *Session) CreateBooking(ctx context.Context, start, end time.Time) State {
	listing := s.loaded()
	if listing == nil {
		s.update(func(st *State) {
			st.Booking = BookingError
			st.BookingError = MsgListingNotFound
		})
		return s.State()
	}

	s.update(func(st *State) {
		st.Booking = BookingInProgress
		st.BookingError = ""
		st.LastBooking = nil
	})
	b, err := s.o.Engine.Create(ctx, bookings.CreateParams{ListingID: listing.ID, Start: start, End: end})
	if err != nil {
		s.log().Info("booking not created", "listing_id", listing.ID, "kind", failure.KindOf(err), "error", err)
		s.update(func(st *State) {
			st.Booking = BookingError
			st.BookingError = BookingMessage(err)
		})
		return s.State()
	}
	s.update(func(st *State) {
		st.Booking = BookingSuccess
		st.LastBooking = b
	})
	return s.State()
}

// BookingMessage turns a booking creation failure into the text shown to the
// user.
func BookingMessage(err error) string {
	switch failure.KindOf(err) {
	case failure.KindNotAuthenticated:
		return MsgNotLoggedIn
	case failure.KindSelfBookingForbidden:
		return MsgSelfBooking
	case failure.KindInvalidBooking:
		return MsgInvalidBooking
	}
	return MsgBookingFailed
}

// ClearBooking resets the booking sub-state once the view has shown it.
func (s *Session) ClearBooking() {
	s.update(func(st *State) {
		st.Booking = BookingIdle
		st.BookingError = ""
		st.LastBooking = nil
	})
}

// Approve confirms a pending booking. Failures are logged only; the refreshed
// booking list shows whether it worked.
func (s *Session) Approve(ctx context.Context, id domainbooking.BookingID) {
	if _, err := s.o.Engine.Approve(ctx, id); err != nil {
		s.log().Warn("booking approval failed", "booking_id", id, "kind", failure.KindOf(err), "error", err)
	}
	s.refresh(ctx)
}

// Reject is Approve's counterpart.
func (s *Session) Reject(ctx context.Context, id domainbooking.BookingID) {
	if _, err := s.o.Engine.Reject(ctx, id); err != nil {
		s.log().Warn("booking rejection failed", "booking_id", id, "kind", failure.KindOf(err), "error", err)
	}
	s.refresh(ctx)
}

// SubmitTutorRating rates the other party of the latest unrated completed
// session. It never reports an error.
func (s *Session) SubmitTutorRating(ctx context.Context, stars int) {
	listing := s.loaded()
	if listing == nil || s.o.Ratings == nil {
		return
	}
	res := s.o.Ratings.SubmitTutorRating(ctx, listing.ID, stars)
	if res.Outcome == ratings.OutcomeSubmitted {
		s.update(func(st *State) { st.RatingPromptVisible = false })
	}
	s.refresh(ctx)
}

// DeleteListing runs the deletion cascade for the loaded listing.
func (s *Session) DeleteListing(ctx context.Context) State {
	listing := s.loaded()
	if listing == nil {
		s.update(func(st *State) {
			st.Deletion = DeletionError
			st.DeletionError = MsgListingNotFound
		})
		return s.State()
	}

	s.update(func(st *State) {
		st.Deletion = DeletionInProgress
		st.DeletionError = ""
	})
	if _, err := s.o.Cascade.DeleteListing(ctx, listing.ID); err != nil {
		s.log().Warn("listing deletion failed", "listing_id", listing.ID, "kind", failure.KindOf(err), "error", err)
		s.update(func(st *State) {
			st.Deletion = DeletionError
			st.DeletionError = MsgDeletionFailed
		})
		return s.State()
	}
	s.update(func(st *State) {
		st.Deletion = DeletionDeleted
		st.Listing = nil
		st.Bookings = nil
		st.Bookers = nil
		st.IsOwner = false
		st.RatingPromptVisible = false
	})
	return s.State()
}

func (s *Session) refresh(ctx context.Context) {
	listing := s.loaded()
	if listing == nil || !s.State().IsOwner {
		return
	}
	s.refreshBookings(ctx, listing)
}

// loaded returns the listing the actions apply to, or nil unless the last
// load succeeded.
func (s *Session) loaded() *domainlistings.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != PhaseLoaded {
		return nil
	}
	return s.state.Listing
}

func (s *Session) currentUser(ctx context.Context) (string, bool) {
	p := s.o.Identity
	if p == nil {
		p = identity.ContextProvider{}
	}
	return p.CurrentUserID(ctx)
}

func (s *Session) log() *slog.Logger {
	if s.o.Logger != nil {
		return s.o.Logger
	}
	return slog.New(slog.DiscardHandler)
}
