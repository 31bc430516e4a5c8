package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
	domainprofiles "skillbridge/internal/domain/profiles"
	domainratings "skillbridge/internal/domain/ratings"
	"skillbridge/internal/domain/shared/events"
)

// ListingRepository keeps listings in a map. Values are copied on the way in
// and out so callers never share state with the store.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlistings.ListingID]domainlistings.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return &l, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *listing
	cp.EventRecorder = events.EventRecorder{}
	r.items[listing.ID] = cp
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainlistings.ErrListingNotFound
	}
	delete(r.items, id)
	return nil
}

// BookingRepository keeps bookings in a map and enforces the version check.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]domainbooking.Booking)}
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[b.ID]; exists {
		return domainbooking.ErrDuplicateBookingID
	}
	b.Version = 1
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return &b, nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b domainbooking.Booking) bool { return b.ListingID == listingID }), nil
}

func (r *BookingRepository) ListConfirmedEndedBefore(ctx context.Context, t time.Time) ([]*domainbooking.Booking, error) {
	return r.filter(func(b domainbooking.Booking) bool {
		return b.Status == domainbooking.StatusConfirmed && b.Session.EndedBefore(t)
	}), nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[b.ID]
	if !ok {
		return domainbooking.ErrBookingNotFound
	}
	if stored.Version != b.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	stored.Status = b.Status
	stored.Payment = b.Payment
	stored.UpdatedAt = b.UpdatedAt
	stored.Version++
	r.items[b.ID] = stored
	b.Version = stored.Version
	return nil
}

func (r *BookingRepository) filter(keep func(domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if !keep(b) {
			continue
		}
		cp := b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneBooking(b *domainbooking.Booking) domainbooking.Booking {
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	return cp
}

// RatingRepository appends ratings and rejects duplicate keys.
type RatingRepository struct {
	mu    sync.RWMutex
	items []domainratings.Rating
	keys  map[domainratings.Key]struct{}
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{keys: make(map[domainratings.Key]struct{})}
}

func (r *RatingRepository) HasRating(ctx context.Context, key domainratings.Key) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[key]
	return ok, nil
}

func (r *RatingRepository) Add(ctx context.Context, rating *domainratings.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := rating.Key()
	if _, exists := r.keys[key]; exists {
		return domainratings.ErrDuplicateRating
	}
	cp := *rating
	cp.EventRecorder = events.EventRecorder{}
	r.items = append(r.items, cp)
	r.keys[key] = struct{}{}
	return nil
}

func (r *RatingRepository) ListByUserAndType(ctx context.Context, userID string, t domainratings.Type) ([]*domainratings.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainratings.Rating, 0)
	for _, item := range r.items {
		if item.ToUserID == userID && item.Type == t {
			cp := item
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Len is the number of stored ratings.
func (r *RatingRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

type ProfileRepository struct {
	mu    sync.RWMutex
	items map[string]domainprofiles.Profile
	now   func() time.Time
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{items: make(map[string]domainprofiles.Profile), now: time.Now}
}

func (r *ProfileRepository) ByID(ctx context.Context, userID string) (*domainprofiles.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[userID]
	if !ok {
		return nil, domainprofiles.ErrProfileNotFound
	}
	return &p, nil
}

func (r *ProfileRepository) Save(ctx context.Context, p *domainprofiles.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.UserID] = *p
	return nil
}

// UpdateAggregate creates a bare profile when none exists yet.
func (r *ProfileRepository) UpdateAggregate(ctx context.Context, userID string, t domainratings.Type, agg domainratings.Aggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[userID]
	if !ok {
		p = domainprofiles.Profile{UserID: userID}
	}
	p.SetRating(t, agg, r.now())
	r.items[userID] = p
	return nil
}

var (
	_ domainlistings.Repository = (*ListingRepository)(nil)
	_ domainbooking.Repository  = (*BookingRepository)(nil)
	_ domainratings.Repository  = (*RatingRepository)(nil)
	_ domainprofiles.Repository = (*ProfileRepository)(nil)
)
