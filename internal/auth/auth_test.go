package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/pkg/apperr"
	"github.com/wonny/tradelens/backend/pkg/config"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func verifier(secret string) *Verifier {
	v := NewVerifier(config.AuthConfig{JWTSecret: secret, ProjectID: "tradelens"}, logger.NewNop())
	v.now = func() time.Time { return now }
	return v
}

func assertAuthError(t *testing.T, err error, msg string) {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, apperr.KindAuth, e.Kind)
	assert.Equal(t, msg, e.Message)
}

func TestAuthenticate_HeaderShape(t *testing.T) {
	v := verifier("")

	_, err := v.Authenticate("")
	assertAuthError(t, err, MsgNoToken)

	_, err = v.Authenticate("Bearer")
	assertAuthError(t, err, MsgInvalidFormat)

	_, err = v.Authenticate("Bearer abc.def")
	assertAuthError(t, err, MsgMalformed)
}

func TestAuthenticate_Unverified(t *testing.T) {
	v := verifier("")
	tok := sign(t, "whatever", Claims{
		UserID: "firebase-uid",
		Email:  "trader@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-id",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	id, err := v.Authenticate("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid", id.UserID, "user_id wins over sub")
	assert.Equal(t, "trader@example.com", id.Email)
}

func TestAuthenticate_UserIDFallbacks(t *testing.T) {
	v := verifier("")

	id, err := v.Authenticate("Bearer " + sign(t, "k", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-id"}}))
	require.NoError(t, err)
	assert.Equal(t, "sub-id", id.UserID)

	id, err = v.Authenticate("Bearer " + sign(t, "k", Claims{UID: "legacy-uid"}))
	require.NoError(t, err)
	assert.Equal(t, "legacy-uid", id.UserID)

	_, err = v.Authenticate("Bearer " + sign(t, "k", Claims{Email: "x@y.z"}))
	assertAuthError(t, err, MsgNoUserID)
}

func TestAuthenticate_Expired(t *testing.T) {
	expired := Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}

	_, err := verifier("").Authenticate("Bearer " + sign(t, "k", expired))
	assertAuthError(t, err, MsgExpired)

	_, err = verifier("secret").Authenticate("Bearer " + sign(t, "secret", expired))
	assertAuthError(t, err, MsgExpired)
}

func TestAuthenticate_Signed(t *testing.T) {
	v := verifier("secret")
	claims := Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: firebaseIssuerPrefix + "tradelens"}}

	id, err := v.Authenticate("Bearer " + sign(t, "secret", claims))
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)

	_, err = v.Authenticate("Bearer " + sign(t, "wrong-secret", claims))
	assertAuthError(t, err, MsgInvalid)
}

func TestAuthenticate_GarbagePayload(t *testing.T) {
	_, err := verifier("").Authenticate("Bearer aaa.!!!.ccc")
	assertAuthError(t, err, MsgInvalid)
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "u1"})
	id, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", id.UserID)
}
