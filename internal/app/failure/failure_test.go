package failure

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByKind(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", New(KindNotFound, "bookings.approve", cause))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestPersistence_KeepsExistingKind(t *testing.T) {
	assert.Nil(t, Persistence("op", nil))

	conflict := New(KindConflict, "op", nil)
	assert.Same(t, conflict, Persistence("outer", conflict))

	wrapped := Persistence("bookings.create", errors.New("socket closed"))
	assert.ErrorIs(t, wrapped, ErrPersistence)
	assert.Equal(t, "bookings.create: PERSISTENCE_FAILURE: socket closed", wrapped.Error())
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(KindNotAuthenticated))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(KindSelfBookingForbidden))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(KindInvalidBooking))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindDeletionFailed))
}
