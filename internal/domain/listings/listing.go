package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"skillbridge/internal/domain/shared/events"
)

var (
	ErrListingNotFound = errors.New("listings: listing not found")
	ErrCreatorRequired = errors.New("listings: creator is required")
	ErrHourlyRate      = errors.New("listings: hourly rate must be non-negative")
	ErrUnknownKind     = errors.New("listings: unknown listing kind")
	ErrAlreadyInactive = errors.New("listings: listing already inactive")
)

type ListingID string

// Kind tells who teaches. On a proposal the creator is the tutor, on a
// request the creator is the student looking for one.
type Kind string

const (
	KindProposal Kind = "PROPOSAL"
	KindRequest  Kind = "REQUEST"
)

func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(raw))) {
	case KindProposal, "":
		return KindProposal, nil
	case KindRequest:
		return KindRequest, nil
	}
	return "", ErrUnknownKind
}

type Listing struct {
	ID         ListingID
	CreatorID  string
	Kind       Kind
	Title      string
	Subject    string
	Active     bool
	HourlyRate decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64

	events.EventRecorder
}

type CreateParams struct {
	ID         ListingID
	CreatorID  string
	Kind       Kind
	Title      string
	Subject    string
	HourlyRate decimal.Decimal
	Now        time.Time
}

func New(p CreateParams) (*Listing, error) {
	if strings.TrimSpace(p.CreatorID) == "" {
		return nil, ErrCreatorRequired
	}
	if p.HourlyRate.IsNegative() {
		return nil, ErrHourlyRate
	}
	kind := p.Kind
	if kind == "" {
		kind = KindProposal
	}
	if kind != KindProposal && kind != KindRequest {
		return nil, ErrUnknownKind
	}
	now := p.Now.UTC()
	l := &Listing{
		ID:         p.ID,
		CreatorID:  p.CreatorID,
		Kind:       kind,
		Title:      strings.TrimSpace(p.Title),
		Subject:    strings.TrimSpace(p.Subject),
		Active:     true,
		HourlyRate: p.HourlyRate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	l.Record(ListingCreatedEvent{ListingID: l.ID, CreatorID: l.CreatorID, Kind: l.Kind, At: now})
	return l, nil
}

func (l *Listing) OwnedBy(userID string) bool {
	return userID != "" && l.CreatorID == userID
}

func (l *Listing) Deactivate(now time.Time) error {
	if !l.Active {
		return ErrAlreadyInactive
	}
	l.Active = false
	l.UpdatedAt = now.UTC()
	l.Record(ListingDeactivatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// MarkDeleted records the deletion fact; removal from storage is up to the caller.
func (l *Listing) MarkDeleted(now time.Time, cancelled int) {
	l.Active = false
	l.UpdatedAt = now.UTC()
	l.Record(ListingDeletedEvent{ListingID: l.ID, CreatorID: l.CreatorID, CancelledBookings: cancelled, At: l.UpdatedAt})
}

// Roles resolves which participant of a booking on this listing is the tutor
// and which one is the student.
func (l *Listing) Roles(bookerID string) (tutorID, studentID string) {
	if l.Kind == KindRequest {
		return bookerID, l.CreatorID
	}
	return l.CreatorID, bookerID
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
}
