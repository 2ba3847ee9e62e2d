package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"blood-donation-backend/pkg/response"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// UserClaims is what a session token carries: identity, role and the
// verification flag resolved at login time.
type UserClaims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	IsVerify bool   `json:"is_verify"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token, rejects unverified accounts and attaches
// the resolved claims to the request context.
func Auth(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Error(w, http.StatusUnauthorized, "Missing Authorization header", "")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.Error(w, http.StatusUnauthorized, "Invalid token format", "Format must be Bearer <token>")
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid or expired token", err.Error())
			return
		}

		claims, ok := token.Claims.(*UserClaims)
		if !ok || !token.Valid {
			response.Error(w, http.StatusUnauthorized, "Invalid token claims", "")
			return
		}

		if !claims.IsVerify {
			response.Error(w, http.StatusForbidden, "Account is not verified", "")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// ClaimsFromRequest pulls the authenticated claims out of the context.
func ClaimsFromRequest(r *http.Request) (*UserClaims, bool) {
	claims, ok := r.Context().Value(UserContextKey).(*UserClaims)
	return claims, ok
}
