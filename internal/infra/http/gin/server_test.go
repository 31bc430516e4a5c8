package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillbridge/internal/app/bookings"
	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/dto"
	"skillbridge/internal/app/failure"
	"skillbridge/internal/app/identity"
	"skillbridge/internal/app/listings"
	"skillbridge/internal/infra/obs"
)

var secret = []byte("test-secret")

func whoAmI(c *gin.Context) {
	id, _ := currentUser(c)
	c.String(http.StatusOK, id)
}

func authRouter(m AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Handle)
	r.GET("/who", whoAmI)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	now := time.Now()
	valid, err := IssueToken(secret, "alice", time.Hour, now)
	require.NoError(t, err)
	expired, err := IssueToken(secret, "alice", time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	foreign, err := IssueToken([]byte("other"), "alice", time.Hour, now)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).SignedString(secret)
	require.NoError(t, err)
	subjectOnly, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "bob", "exp": now.Add(time.Hour).Unix()}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		dev    string
		allow  bool
		want   string
	}{
		{name: "valid token", header: "Bearer " + valid, want: "alice"},
		{name: "lowercase scheme", header: "bearer " + valid, want: "alice"},
		{name: "subject claim", header: "Bearer " + subjectOnly, want: "bob"},
		{name: "expired", header: "Bearer " + expired},
		{name: "wrong key", header: "Bearer " + foreign},
		{name: "no expiry", header: "Bearer " + noExpiry},
		{name: "basic auth", header: "Basic YWxpY2U6cHc="},
		{name: "header ignored outside dev", dev: "mallory"},
		{name: "header in dev", dev: "mallory", allow: true, want: "mallory"},
		{name: "token wins over header", header: "Bearer " + valid, dev: "mallory", allow: true, want: "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authRouter(AuthMiddleware{Secret: secret, AllowHeader: tt.allow})
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.dev != "" {
				req.Header.Set(DevUserHeader, tt.dev)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err    error
		msg    string
		status int
		body   string
	}{
		{err: failure.New(failure.KindNotFound, "op", nil), status: http.StatusNotFound, body: `"error":"NOT_FOUND"`},
		{err: failure.New(failure.KindConflict, "op", nil), status: http.StatusConflict, body: `"error":"CONFLICT"`},
		{err: failure.New(failure.KindDeletionFailed, "op", errors.New("disk")), msg: "failed to delete listing", status: http.StatusInternalServerError, body: `"message":"failed to delete listing"`},
		{err: errors.New("boom"), status: http.StatusInternalServerError, body: `{"error":"INTERNAL"}`},
		{err: bus.ErrInvalidMessage, status: http.StatusBadRequest, body: `"error":"INTERNAL"`},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		writeError(c, tt.err, tt.msg)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.Contains(t, rec.Body.String(), tt.body)
	}
}

// stubBus answers every message with the configured function.
type stubBus func(ctx context.Context, msg bus.Message) (any, error)

func (f stubBus) Dispatch(ctx context.Context, msg bus.Message) (any, error) { return f(ctx, msg) }

func TestRoutes_DispatchCommands(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var got []bus.Message
	commands := stubBus(func(ctx context.Context, msg bus.Message) (any, error) {
		got = append(got, msg)
		if _, ok := identity.UserFromContext(ctx); !ok {
			return nil, failure.New(failure.KindNotAuthenticated, msg.Key(), nil)
		}
		switch m := msg.(type) {
		case bookings.TransitionBookingCommand:
			return &dto.Booking{ID: m.BookingID, Status: "CONFIRMED"}, nil
		case listings.DeleteListingCommand:
			return nil, failure.New(failure.KindDeletionFailed, msg.Key(), errors.New("store down"))
		}
		return nil, errors.New("unexpected")
	})
	logger := slog.New(slog.DiscardHandler)
	router := NewRouter(obs.Middleware{Logger: logger}, obs.HealthHandlers{}, Handlers{
		Listing:        ListingHandler{Commands: commands},
		Booking:        BookingHandler{Commands: commands},
		AuthMiddleware: AuthMiddleware{AllowHeader: true}.Handle,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/b-1/transitions/confirm-payment", nil)
	req.Header.Set(DevUserHeader, "tutor")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got, 1)
	assert.Equal(t, bookings.ActionConfirmPayment, got[0].(bookings.TransitionBookingCommand).Action)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/listings/l-1", nil)
	req.Header.Set(DevUserHeader, "tutor")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to delete listing")

	req = httptest.NewRequest(http.MethodPost, "/api/v1/listings/l-1/ratings", strings.NewReader(`{"stars":4}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, got, 2)

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/listings/l-1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestConfigureGinMode(t *testing.T) {
	assert.Equal(t, gin.TestMode, configureGinMode("test"))
	assert.Equal(t, gin.DebugMode, configureGinMode(" Dev "))
	assert.Equal(t, gin.ReleaseMode, configureGinMode("prod"))
	gin.SetMode(gin.TestMode)
}
