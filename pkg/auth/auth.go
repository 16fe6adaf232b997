package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type JWT struct {
	Secret string        `yaml:"secret" envconfig:"JWT_SECRET" default:"change-me-in-production"`
	TTL    time.Duration `yaml:"ttl" envconfig:"JWT_TTL" default:"24h"`
}

// Claims binds a token to a staff user id.
type Claims struct {
	StaffID string `json:"staffId"`
	jwt.RegisteredClaims
}

func NewToken(staffID string, cfg JWT) (string, time.Time, error) {
	expiresAt := time.Now().Add(cfg.TTL)
	claims := &Claims{
		StaffID: staffID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenNotValidYet
	}
	return claims, nil
}

type staffKey struct{}

func SetStaffContext(ctx context.Context, staffID string) context.Context {
	return context.WithValue(ctx, staffKey{}, staffID)
}

// StaffID returns the authenticated staff user id, or "" if unauthenticated.
func StaffID(ctx context.Context) string {
	id, _ := ctx.Value(staffKey{}).(string)
	return id
}
