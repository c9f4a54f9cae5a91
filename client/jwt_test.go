package client

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestParseSessionTokenUnverified(t *testing.T) {
	userId := NewId()
	token := makeSessionToken(t, userId)

	claims, err := ParseSessionTokenUnverified(token)
	assert.Equal(t, err, nil)
	assert.Equal(t, claims.UserId, userId)
	assert.Equal(t, claims.ExpiresAt.Unix(), time.Unix(4102444800, 0).Unix())
}

func TestParseSessionTokenMalformed(t *testing.T) {
	_, err := ParseSessionTokenUnverified("not.a.token")
	assert.NotEqual(t, err, nil)

	_, err = ParseSessionTokenUnverified("")
	assert.NotEqual(t, err, nil)
}
