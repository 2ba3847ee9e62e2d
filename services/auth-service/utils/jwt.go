package utils

import (
	"fmt"
	"time"

	"blood-donation-backend/pkg/middleware"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionTokenTTL = 6 * time.Hour
	VerifyTokenTTL  = 24 * time.Hour
)

// GenerateSessionToken signs the claims a logged-in caller presents on
// every subsequent request.
func GenerateSessionToken(secret, userID, role string, isVerify bool) (string, error) {
	claims := middleware.UserClaims{
		UserID:   userID,
		Role:     role,
		IsVerify: isVerify,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

type verifyClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateVerifyToken signs the time-boxed token embedded in the
// verification callback URL.
func GenerateVerifyToken(secret, userID string) (string, error) {
	claims := verifyClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(VerifyTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseVerifyToken returns the user id a verification token was issued for,
// or an error on expiry or tampering.
func ParseVerifyToken(secret, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &verifyClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*verifyClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	return claims.UserID, nil
}
