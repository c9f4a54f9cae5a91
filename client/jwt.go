package client

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// claims carried by the optional server issued session token. the token is
// parsed unverified: the server already authenticated the exchange, the
// claims are only session bookkeeping on this side.
type SessionClaims struct {
	UserId    Id
	ExpiresAt time.Time
}

func ParseSessionTokenUnverified(token string) (*SessionClaims, error) {
	parser := gojwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims := parsed.Claims.(gojwt.MapClaims)

	sessionClaims := &SessionClaims{}

	if userIdStr, ok := claims["user_id"].(string); ok {
		if userId, err := ParseId(userIdStr); err == nil {
			sessionClaims.UserId = userId
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sessionClaims.ExpiresAt = exp.Time
	}

	return sessionClaims, nil
}
