package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warp/leave-planner/leave"
)

type contextKey string

const userContextKey contextKey = "user_id"

// HeaderUserID carries the user id when header identity is allowed (development).
const HeaderUserID = "X-User-ID"

var errUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves the caller's user id from a bearer token or, when
// allowed, from the X-User-ID header. Tokens are HS256 JWTs whose subject is
// the user id.
type Authenticator struct {
	secret      []byte
	allowHeader bool
}

func NewAuthenticator(secret string, allowHeader bool) *Authenticator {
	return &Authenticator{secret: []byte(secret), allowHeader: allowHeader}
}

// GenerateToken signs a token for userID.
func (a *Authenticator) GenerateToken(userID leave.UserID, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("no signing secret configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   string(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) parseToken(tokenString string) (leave.UserID, error) {
	if len(a.secret) == 0 {
		return "", errUnauthenticated
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errUnauthenticated
	}
	return leave.UserID(claims.Subject), nil
}

// Identify rejects requests without a resolvable user with 401. A present
// but invalid token never falls back to the header.
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var userID leave.UserID

		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "Malformed Authorization header", nil)
				return
			}
			id, err := a.parseToken(strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", err)
				return
			}
			userID = id
		} else if a.allowHeader {
			userID = leave.UserID(strings.TrimSpace(r.Header.Get(HeaderUserID)))
		}

		if userID == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the user set by Identify.
func UserFromContext(ctx context.Context) (leave.UserID, bool) {
	id, ok := ctx.Value(userContextKey).(leave.UserID)
	return id, ok && id != ""
}
