package ratings

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"skillbridge/internal/domain/shared/events"
)

const (
	MinStars         = 1
	MaxStars         = 5
	MaxCommentLength = 500
)

var (
	ErrDuplicateRating = errors.New("ratings: rating already exists for this booking")
	ErrSelfRating      = errors.New("ratings: users cannot rate themselves")
	ErrTargetRequired  = errors.New("ratings: target booking is required")
	ErrUnknownType     = errors.New("ratings: unknown rating type")
)

type RatingID string

// Type names the role the rated user played: a TUTOR rating lands on the
// tutor-facing aggregate, a STUDENT rating on the student-facing one.
type Type string

const (
	TypeTutor   Type = "TUTOR"
	TypeStudent Type = "STUDENT"
)

func (t Type) Valid() bool {
	return t == TypeTutor || t == TypeStudent
}

// Key is the uniqueness tuple; at most one rating exists per key.
type Key struct {
	FromUserID string
	ToUserID   string
	Type       Type
	TargetID   string
}

type Rating struct {
	ID         RatingID
	FromUserID string
	ToUserID   string
	Stars      int
	Comment    string
	Type       Type
	TargetID   string
	ListingID  string
	CreatedAt  time.Time

	events.EventRecorder
}

type CreateParams struct {
	ID        RatingID
	Key       Key
	Stars     int
	Comment   string
	ListingID string
	Now       time.Time
}

// New clamps the stars and sanitises the comment; it only fails on a
// malformed key.
func New(p CreateParams) (*Rating, error) {
	if !p.Key.Type.Valid() {
		return nil, ErrUnknownType
	}
	if strings.TrimSpace(p.Key.TargetID) == "" {
		return nil, ErrTargetRequired
	}
	if p.Key.FromUserID == p.Key.ToUserID {
		return nil, ErrSelfRating
	}
	r := &Rating{
		ID:         p.ID,
		FromUserID: p.Key.FromUserID,
		ToUserID:   p.Key.ToUserID,
		Stars:      ClampStars(p.Stars),
		Comment:    SanitizeComment(p.Comment),
		Type:       p.Key.Type,
		TargetID:   p.Key.TargetID,
		ListingID:  p.ListingID,
		CreatedAt:  p.Now.UTC(),
	}
	r.Record(RatingSubmittedEvent{
		BaseEvent: events.NewBase("rating.submitted", string(r.ID), r.CreatedAt),
		RatingID:  r.ID,
		From:      r.FromUserID,
		To:        r.ToUserID,
		Type:      r.Type,
		Stars:     r.Stars,
		BookingID: r.TargetID,
	})
	return r, nil
}

func (r *Rating) Key() Key {
	return Key{FromUserID: r.FromUserID, ToUserID: r.ToUserID, Type: r.Type, TargetID: r.TargetID}
}

func ClampStars(v int) int {
	switch {
	case v < MinStars:
		return MinStars
	case v > MaxStars:
		return MaxStars
	}
	return v
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SanitizeComment strips markup and control characters, collapses whitespace
// and caps the result at MaxCommentLength runes.
func SanitizeComment(in string) string {
	out := tagPattern.ReplaceAllString(in, "")
	out = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, out)
	out = strings.TrimSpace(whitespacePattern.ReplaceAllString(out, " "))
	if runes := []rune(out); len(runes) > MaxCommentLength {
		out = strings.TrimSpace(string(runes[:MaxCommentLength]))
	}
	return out
}

// Repository is the rating persistence port. Add must fail with
// ErrDuplicateRating when a rating with the same Key exists.
type Repository interface {
	HasRating(ctx context.Context, key Key) (bool, error)
	Add(ctx context.Context, r *Rating) error
	ListByUserAndType(ctx context.Context, userID string, t Type) ([]*Rating, error)
}
