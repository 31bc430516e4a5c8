package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/failure"
	"skillbridge/internal/app/identity"
	"skillbridge/internal/app/middleware"
	appoutbox "skillbridge/internal/app/outbox"
	"skillbridge/internal/infra/storage/memory"
)

type reserve struct {
	Slot      string `validate:"required"`
	RequestID string
}

func (reserve) Key() string              { return "test.reserve" }
func (reserve) RequiresUser() bool       { return true }
func (r reserve) IdempotencyKey() string { return r.RequestID }
func (reserve) ResultPrototype() any     { return &receipt{} }

type receipt struct {
	Number int `json:"number"`
}

type counting struct {
	calls int
	err   error
}

func (c *counting) Handle(ctx context.Context, msg reserve) (*receipt, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &receipt{Number: c.calls}, nil
}

func newBus(h *counting, mws ...middleware.Middleware) bus.Bus {
	b := bus.NewInMemory()
	bus.Register[reserve, *receipt](b, h)
	return middleware.Chain(b, mws...)
}

func TestIdempotency_ReplaysFirstResult(t *testing.T) {
	h := &counting{}
	b := newBus(h, middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	ctx := context.Background()

	first, err := bus.Dispatch[reserve, *receipt](ctx, b, reserve{Slot: "mon", RequestID: "r-1"})
	require.NoError(t, err)
	again, err := bus.Dispatch[reserve, *receipt](ctx, b, reserve{Slot: "mon", RequestID: "r-1"})
	require.NoError(t, err)
	other, err := bus.Dispatch[reserve, *receipt](ctx, b, reserve{Slot: "mon", RequestID: "r-2"})
	require.NoError(t, err)
	_, err = bus.Dispatch[reserve, *receipt](ctx, b, reserve{Slot: "mon"})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 1, again.Number)
	assert.Equal(t, 2, other.Number)
	assert.Equal(t, 3, h.calls)
}

func TestIdempotency_RemembersDomainFailuresOnly(t *testing.T) {
	ctx := context.Background()

	h := &counting{err: failure.New(failure.KindSelfBookingForbidden, "test.reserve", nil)}
	b := newBus(h, middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	for i := 0; i < 2; i++ {
		_, err := b.Dispatch(ctx, reserve{Slot: "mon", RequestID: "r-1"})
		assert.ErrorIs(t, err, failure.ErrSelfBookingForbidden)
	}
	assert.Equal(t, 1, h.calls)

	h = &counting{err: failure.Persistence("test.reserve", errors.New("disk full"))}
	b = newBus(h, middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	for i := 0; i < 2; i++ {
		_, err := b.Dispatch(ctx, reserve{Slot: "mon", RequestID: "r-1"})
		assert.ErrorIs(t, err, failure.ErrPersistence)
	}
	assert.Equal(t, 2, h.calls)
}

func TestValidation(t *testing.T) {
	h := &counting{}
	b := newBus(h, middleware.Validation(middleware.NewStructValidator()))

	_, err := b.Dispatch(context.Background(), reserve{})
	assert.ErrorIs(t, err, failure.ErrInvalidBooking)
	assert.Zero(t, h.calls)

	_, err = b.Dispatch(context.Background(), reserve{Slot: "mon"})
	assert.NoError(t, err)
}

func TestAuthentication(t *testing.T) {
	h := &counting{}
	b := newBus(h, middleware.Authentication(nil))

	_, err := b.Dispatch(context.Background(), reserve{Slot: "mon"})
	assert.ErrorIs(t, err, failure.ErrNotAuthenticated)

	_, err = b.Dispatch(identity.WithUser(context.Background(), "alice"), reserve{Slot: "mon"})
	assert.NoError(t, err)
	assert.Equal(t, 1, h.calls)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := &counting{err: failure.New(failure.KindNotFound, "test.reserve", nil)}
	b := newBus(h, middleware.Logging(logger))

	_, err := b.Dispatch(context.Background(), reserve{Slot: "mon"})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"kind":"NOT_FOUND"`)
	assert.Contains(t, buf.String(), `"key":"test.reserve"`)
}

type flushCounter struct{ flushes int }

func (f *flushCounter) Add(context.Context, appoutbox.EventRecord) error { return nil }
func (f *flushCounter) Flush(context.Context) error {
	f.flushes++
	return nil
}

func TestOutboxFlush_OnlyAfterSuccess(t *testing.T) {
	box := &flushCounter{}
	h := &counting{}
	b := newBus(h, middleware.OutboxFlush(box))

	_, err := b.Dispatch(context.Background(), reserve{Slot: "mon"})
	require.NoError(t, err)
	h.err = errors.New("boom")
	_, err = b.Dispatch(context.Background(), reserve{Slot: "mon"})
	require.Error(t, err)

	assert.Equal(t, 1, box.flushes)
}
