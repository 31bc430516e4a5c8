package session

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRange = errors.New("session: start must be before end")
)

var hour = decimal.NewFromInt(int64(time.Hour))

// Range is the half-open interval [Start, End) a tutoring session occupies.
type Range struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Range, error) {
	r := Range{Start: start.UTC(), End: end.UTC()}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrInvalidRange
	}
	if !r.End.After(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Hours is the session length in hours, never negative.
func (r Range) Hours() decimal.Decimal {
	d := r.End.Sub(r.Start)
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d)).Div(hour)
}

// EndedBefore reports whether the session finished strictly before t. A
// session ending exactly at t is still running for the completion sweep.
func (r Range) EndedBefore(t time.Time) bool {
	return r.End.Before(t)
}

// Price charges hourlyRate for every (fractional) hour of the session.
func Price(hourlyRate decimal.Decimal, r Range) decimal.Decimal {
	return hourlyRate.Mul(r.Hours()).Round(2)
}
