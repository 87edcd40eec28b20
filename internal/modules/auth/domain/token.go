package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/eskrenkovic/matchroom/internal/clock"
	"github.com/eskrenkovic/matchroom/internal/modules/core"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	tokenIssuer     = "matchroom"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 signed participant tokens. The
// subject claim carries the participant id.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokens(secret string, ttl time.Duration, c clock.Clock) (*Tokens, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if c == nil {
		c = clock.Real()
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, clock: c}, nil
}

func (t *Tokens) Issue(identity core.Identity) (string, time.Time, error) {
	now := t.clock.Now()
	expiresAt := now.Add(t.ttl)

	claims := Claims{
		Name: identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   identity.ParticipantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func (t *Tokens) Authenticate(token string) (core.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}
	if claims.Subject == "" {
		return core.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return core.Identity{ParticipantID: claims.Subject, Name: claims.Name}, nil
}
