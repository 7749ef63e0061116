// Package auth mints and checks the HS256 access tokens cashiers receive at login.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/pkg/config"
)

var signingMethod = jwt.SigningMethodHS256

type AccessTokenPayload struct {
	CashierID   uuid.UUID
	CashierCode string
	// JTI is generated when blank.
	JTI string
}

// AccessTokenClaims carries the cashier alongside the registered claims. Subject
// repeats the cashier id for generic JWT tooling.
type AccessTokenClaims struct {
	CashierID   uuid.UUID `json:"cashier_id"`
	CashierCode string    `json:"cashier_code"`
	jwt.RegisteredClaims
}

func checkConfig(cfg config.JWTConfig, minting bool) error {
	switch {
	case cfg.Secret == "":
		return errors.New("jwt secret is required")
	case minting && cfg.Issuer == "":
		return errors.New("jwt issuer is required")
	case minting && cfg.ExpirationMinutes <= 0:
		return errors.New("jwt expiration minutes must be positive")
	}
	return nil
}

// MintAccessToken returns the signed token and when it expires.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, time.Time, error) {
	if err := checkConfig(cfg, true); err != nil {
		return "", time.Time{}, err
	}
	if payload.CashierID == uuid.Nil {
		return "", time.Time{}, errors.New("cashier id is required")
	}
	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	expiresAt := now.Add(cfg.TTL())
	signed, err := jwt.NewWithClaims(signingMethod, AccessTokenClaims{
		CashierID:   payload.CashierID,
		CashierCode: payload.CashierCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   payload.CashierID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing jwt: %w", err)
	}
	// NumericDate truncates to seconds; report what the token actually says.
	return signed, jwt.NewNumericDate(expiresAt).Time, nil
}

// ParseAccessToken verifies signature, issuer and expiry. Only HS256 is accepted.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if err := checkConfig(cfg, false); err != nil {
		return nil, err
	}
	claims := new(AccessTokenClaims)
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return []byte(cfg.Secret), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.CashierID == uuid.Nil {
		return nil, errors.New("token missing cashier id")
	}
	return claims, nil
}
