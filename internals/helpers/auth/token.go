package helper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"coursereg_backend/internals/constants"
)

// Claims carried by access tokens.
type Claims struct {
	UserID uint     `json:"id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token.
func IssueToken(secret string, userID uint, roles []constants.Role, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	claims := Claims{
		UserID: userID,
		Roles:  names,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseToken verifies the signature and algorithm and returns the identity.
func ParseToken(secret, raw string) (Identity, error) {
	tok, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || claims.UserID == 0 {
		return Identity{}, fmt.Errorf("invalid token claims")
	}
	return Identity{UserID: claims.UserID, Roles: ParseRoles(claims.Roles)}, nil
}
