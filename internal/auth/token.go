// Package auth issues and verifies session tokens for members and
// credentials for kiosks.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hrdesk/internal/models"
)

const (
	CookieName = "token"
	TokenTTL   = 24 * time.Hour
)

// Claims represents the JWT claims structure.
type Claims struct {
	MemberID int64  `json:"uid"`
	OrgID    int64  `json:"oid"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a session token for m.
func Issue(secret string, m *models.Member, now time.Time) (string, time.Time, error) {
	exp := now.Add(TokenTTL)
	claims := Claims{
		MemberID: m.ID,
		OrgID:    m.OrgID,
		Email:    m.Email,
		Name:     m.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(m.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, exp, nil
}

// Parse verifies tokenStr and returns its claims.
func Parse(secret, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.MemberID == 0 || claims.OrgID == 0 {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// Initiator names the member for audit entries.
func (c *Claims) Initiator() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}
