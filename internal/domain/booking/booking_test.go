package booking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func validParams() CreateParams {
	return CreateParams{
		ID:               "b-1",
		ListingID:        "l-1",
		ListingCreatorID: "tutor",
		BookerID:         "student",
		Start:            t0,
		End:              t0.Add(time.Hour),
		Price:            decimal.NewFromInt(30),
		Now:              t0.Add(-24 * time.Hour),
	}
}

func TestNew_StartsPendingAndRecordsRequest(t *testing.T) {
	b, err := New(validParams())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, PaymentPending, b.Payment)
	evs := b.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "booking.requested", evs[0].EventName())
	assert.Equal(t, "b-1", evs[0].AggregateID())
}

func TestNew_Invariants(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *CreateParams)
		want   error
	}{
		{"inverted range", func(p *CreateParams) { p.Start, p.End = p.End, p.Start }, ErrInvalidSession},
		{"empty range", func(p *CreateParams) { p.End = p.Start }, ErrInvalidSession},
		{"self booking", func(p *CreateParams) { p.BookerID = p.ListingCreatorID }, ErrSelfBooking},
		{"negative price", func(p *CreateParams) { p.Price = decimal.NewFromInt(-1) }, ErrNegativePrice},
		{"missing booker", func(p *CreateParams) { p.BookerID = "" }, ErrMissingParty},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			b, err := New(p)
			assert.Nil(t, b)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTransitions_HappyPath(t *testing.T) {
	b, err := New(validParams())
	require.NoError(t, err)
	b.ClearEvents()

	require.NoError(t, b.Confirm(t0))
	require.NoError(t, b.Complete(t0.Add(2*time.Hour)))

	assert.Equal(t, StatusCompleted, b.Status)
	assert.ErrorIs(t, b.Cancel(t0, "tutor"), ErrInvalidTransition)
	names := []string{}
	for _, ev := range b.PendingEvents() {
		names = append(names, ev.EventName())
	}
	assert.Equal(t, []string{"booking.confirmed", "booking.completed"}, names)
}

func TestComplete_RequiresConfirmed(t *testing.T) {
	b, err := New(validParams())
	require.NoError(t, err)

	assert.ErrorIs(t, b.Complete(t0), ErrInvalidTransition)
	assert.Equal(t, StatusPending, b.Status)
}

func TestAdvancePayment(t *testing.T) {
	b, err := New(validParams())
	require.NoError(t, err)

	assert.ErrorIs(t, b.AdvancePayment(PaymentConfirmed, t0), ErrInvalidPayment)
	require.NoError(t, b.AdvancePayment(PaymentPaid, t0))
	require.NoError(t, b.AdvancePayment(PaymentConfirmed, t0))
	assert.ErrorIs(t, b.AdvancePayment(PaymentConfirmed, t0), ErrInvalidPayment)
}

func TestAdvancePayment_RejectedOnCancelled(t *testing.T) {
	b, err := New(validParams())
	require.NoError(t, err)
	require.NoError(t, b.Cancel(t0, "student"))

	assert.ErrorIs(t, b.AdvancePayment(PaymentPaid, t0), ErrInvalidPayment)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseStatus("confirmed")
	assert.Error(t, err)
}

var allStatuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

func TestProperty_StateMachineReachability(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b, err := New(validParams())
		if err != nil {
			rt.Fatalf("setup: %v", err)
		}
		steps := rapid.SliceOfN(rapid.SampledFrom([]string{"confirm", "complete", "cancel"}), 0, 8).Draw(rt, "steps")
		for _, step := range steps {
			before := b.Status
			var stepErr error
			switch step {
			case "confirm":
				stepErr = b.Confirm(t0)
			case "complete":
				stepErr = b.Complete(t0)
			case "cancel":
				stepErr = b.Cancel(t0, "")
			}
			if stepErr != nil {
				if b.Status != before {
					rt.Fatalf("failed %s changed status %s -> %s", step, before, b.Status)
				}
				continue
			}
			if !before.CanTransitionTo(b.Status) {
				rt.Fatalf("illegal transition %s -> %s via %s", before, b.Status, step)
			}
			if before.IsTerminal() {
				rt.Fatalf("left terminal status %s", before)
			}
		}
	})
}

func TestProperty_TerminalStatusesAreAbsorbing(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		for _, to := range allStatuses {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.ElementsMatch(t, []Status{StatusConfirmed, StatusCancelled}, transitions[StatusPending])
	assert.ElementsMatch(t, []Status{StatusCompleted, StatusCancelled}, transitions[StatusConfirmed])
}

func TestProperty_ConstructedBookingsHoldInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		users := []string{"alice", "bob", "carol"}
		p := CreateParams{
			ID:               "b",
			ListingID:        "l",
			ListingCreatorID: rapid.SampledFrom(users).Draw(rt, "creator"),
			BookerID:         rapid.SampledFrom(users).Draw(rt, "booker"),
			Start:            t0.Add(time.Duration(rapid.IntRange(-120, 120).Draw(rt, "start")) * time.Minute),
			End:              t0.Add(time.Duration(rapid.IntRange(-120, 120).Draw(rt, "end")) * time.Minute),
			Price:            decimal.NewFromInt(int64(rapid.IntRange(-50, 50).Draw(rt, "price"))),
			Now:              t0,
		}
		b, err := New(p)
		if err != nil {
			return
		}
		if !b.Session.Start.Before(b.Session.End) {
			rt.Fatalf("start %v not before end %v", b.Session.Start, b.Session.End)
		}
		if b.ListingCreatorID == b.BookerID {
			rt.Fatalf("self booking constructed for %s", b.BookerID)
		}
		if b.Price.IsNegative() {
			rt.Fatalf("negative price %s", b.Price)
		}
	})
}
