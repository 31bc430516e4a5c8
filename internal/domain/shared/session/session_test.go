package session

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNew_RejectsInvertedAndEmptyRanges(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := New(start, start)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(start.Add(time.Hour), start)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, start)
	assert.ErrorIs(t, err, ErrInvalidRange)

	r, err := New(start, start.Add(90*time.Minute))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(1.5).Equal(r.Hours()))
}

func TestPrice_OneHourAtThirty(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := Range{Start: start, End: start.Add(time.Hour)}

	price := Price(decimal.NewFromFloat(30.0), r)

	assert.True(t, price.Equal(decimal.NewFromFloat(30.0)), "got %s", price)
}

func TestHours_ClampsInvertedRangeToZero(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := Range{Start: start.Add(time.Hour), End: start}

	assert.True(t, r.Hours().IsZero())
	assert.True(t, Price(decimal.NewFromInt(50), r).IsZero())
}

func TestProperty_PriceNeverNegative(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rapid.Check(t, func(rt *rapid.T) {
		rate := decimal.NewFromFloat(rapid.Float64Range(0, 500).Draw(rt, "rate"))
		startOffset := rapid.Int64Range(-1000, 1000).Draw(rt, "startMinutes")
		endOffset := rapid.Int64Range(-1000, 1000).Draw(rt, "endMinutes")
		r := Range{
			Start: base.Add(time.Duration(startOffset) * time.Minute),
			End:   base.Add(time.Duration(endOffset) * time.Minute),
		}

		price := Price(rate, r)
		if price.IsNegative() {
			rt.Fatalf("price %s for rate %s over %v is negative", price, rate, r)
		}
	})
}

func TestRange_EndedBefore(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r, err := New(start, start.Add(time.Hour))
	require.NoError(t, err)

	assert.False(t, r.EndedBefore(start.Add(30*time.Minute)))
	assert.False(t, r.EndedBefore(r.End))
	assert.True(t, r.EndedBefore(r.End.Add(time.Nanosecond)))
}
