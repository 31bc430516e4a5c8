package ratings

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func key() Key {
	return Key{FromUserID: "tutor", ToUserID: "student", Type: TypeStudent, TargetID: "b-1"}
}

func TestNew_ClampsStars(t *testing.T) {
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 3: 3, 5: 5, 6: 5, 42: 5}
	for in, want := range cases {
		r, err := New(CreateParams{ID: "r", Key: key(), Stars: in, Now: time.Now()})
		require.NoError(t, err)
		assert.Equal(t, want, r.Stars, "input %d", in)
	}
}

func TestNew_RejectsMalformedKeys(t *testing.T) {
	k := key()
	k.ToUserID = k.FromUserID
	_, err := New(CreateParams{Key: k, Stars: 4})
	assert.ErrorIs(t, err, ErrSelfRating)

	k = key()
	k.TargetID = " "
	_, err = New(CreateParams{Key: k, Stars: 4})
	assert.ErrorIs(t, err, ErrTargetRequired)

	k = key()
	k.Type = "LISTING"
	_, err = New(CreateParams{Key: k, Stars: 4})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNew_RecordsSubmission(t *testing.T) {
	r, err := New(CreateParams{ID: "r-9", Key: key(), Stars: 4, Now: time.Now()})
	require.NoError(t, err)

	evs := r.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "rating.submitted", evs[0].EventName())
	assert.Equal(t, "r-9", evs[0].AggregateID())
	assert.Equal(t, key(), r.Key())
}

func TestSanitizeComment(t *testing.T) {
	assert.Equal(t, "great session", SanitizeComment("  <b>great</b>\n\n\tsession "))
	assert.Equal(t, "alert(1) ok", SanitizeComment("<script>alert(1)</script> ok"))
	assert.Equal(t, "ab", SanitizeComment("a\u0000b​"))

	long := SanitizeComment(strings.Repeat("é", MaxCommentLength+20))
	assert.Equal(t, MaxCommentLength, len([]rune(long)))
}

func TestCompute(t *testing.T) {
	assert.Equal(t, Aggregate{}, Compute(nil))

	agg := Compute([]int{4, 2, 5})
	assert.Equal(t, 3, agg.Count)
	assert.InDelta(t, 11.0/3.0, agg.Average, 1e-9)
}

func TestComputeFrom_SkipsNil(t *testing.T) {
	agg := ComputeFrom([]*Rating{{Stars: 5}, nil, {Stars: 3}})
	assert.Equal(t, Aggregate{Average: 4, Count: 2}, agg)
}

func TestProperty_AggregateIsMeanAndCount(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		stars := rapid.SliceOf(rapid.IntRange(MinStars, MaxStars)).Draw(rt, "stars")
		agg := Compute(stars)

		if agg.Count != len(stars) {
			rt.Fatalf("count %d, want %d", agg.Count, len(stars))
		}
		if len(stars) == 0 {
			if agg.Average != 0 {
				rt.Fatalf("average %v for empty history", agg.Average)
			}
			return
		}
		sum := 0
		for _, s := range stars {
			sum += s
		}
		want := float64(sum) / float64(len(stars))
		if math.Abs(agg.Average-want) > 1e-9 {
			rt.Fatalf("average %v, want %v", agg.Average, want)
		}
		if agg.Average < MinStars || agg.Average > MaxStars {
			rt.Fatalf("average %v out of star range", agg.Average)
		}
	})
}

func TestProperty_ClampStaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.Int().Draw(rt, "v")
		got := ClampStars(v)
		if got < MinStars || got > MaxStars {
			rt.Fatalf("ClampStars(%d) = %d", v, got)
		}
		if v >= MinStars && v <= MaxStars && got != v {
			rt.Fatalf("ClampStars(%d) changed an in-range value to %d", v, got)
		}
	})
}
