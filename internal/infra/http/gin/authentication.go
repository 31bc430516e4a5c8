package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"skillbridge/internal/app/identity"
)

// DevUserHeader names the caller directly when header identities are allowed.
const DevUserHeader = "X-User-ID"

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthMiddleware resolves the caller from a bearer token and stores it on the
// request context. Requests without a valid token continue anonymously; the
// application decides which operations need a user.
type AuthMiddleware struct {
	Secret      []byte
	AllowHeader bool
	Logger      *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	userID := ""
	if token := extractBearerToken(c.GetHeader("Authorization")); token != "" && len(m.Secret) > 0 {
		id, err := m.verify(token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("token validation failed", "error", err)
			}
		} else {
			userID = id
		}
	}
	if userID == "" && m.AllowHeader {
		userID = strings.TrimSpace(c.GetHeader(DevUserHeader))
	}
	if userID != "" {
		c.Request = c.Request.WithContext(identity.WithUser(c.Request.Context(), userID))
	}
	c.Next()
}

var errNoSubject = errors.New("token carries no user")

func (m AuthMiddleware) verify(raw string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.UserID != "" {
		return claims.UserID, nil
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	return "", errNoSubject
}

// IssueToken signs a short-lived HS256 token for userID.
func IssueToken(secret []byte, userID string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func currentUser(c *gin.Context) (string, bool) {
	return identity.UserFromContext(c.Request.Context())
}

func requireUser(c *gin.Context) (string, bool) {
	id, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return "", false
	}
	return id, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
