package api

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// playerClaims are the claims of a bearer token. Subject is the player id.
type playerClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// CreateToken signs an HS256 bearer token for playerID valid for ttl.
func CreateToken(secret []byte, playerID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := playerClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, token string) (*playerClaims, error) {
	claims := &playerClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
