package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "kingdoms"

var ErrInvalidToken = errors.New("invalid seat token")

// SeatClaims say which seat of which game the bearer has claimed
type SeatClaims struct {
	GameID   string `json:"gameID"`
	PlayerID int    `json:"playerID"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks seat tokens with a shared secret
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (ti *TokenIssuer) Issue(gameID string, playerID int) (string, error) {
	now := ti.now()
	claims := SeatClaims{
		GameID:   gameID,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(playerID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			ID:        NewID(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign seat token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and issuer and returns the claims
func (ti *TokenIssuer) Verify(token string) (SeatClaims, error) {
	var claims SeatClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return SeatClaims{}, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}
	if claims.GameID == "" || claims.PlayerID <= 0 {
		return SeatClaims{}, fmt.Errorf("%w: missing seat", ErrInvalidToken)
	}
	return claims, nil
}
