package identity

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/grannhjalp/grannhjalp/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "verifier-test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestVerify(t *testing.T) {
	node, err := snowflake.NewNode(9)
	require.NoError(t, err)
	userID := node.Generate()

	verifier := NewVerifier(config.Config{AuthJWTSecret: testSecret})

	token := signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyRejections(t *testing.T) {
	node, err := snowflake.NewNode(9)
	require.NoError(t, err)
	userID := node.Generate()

	verifier := NewVerifier(config.Config{AuthJWTSecret: testSecret})

	cases := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty token", "", ErrMissingToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{
			"wrong secret",
			signToken(t, jwt.SigningMethodHS256, "other-secret", jwt.MapClaims{
				"sub": userID.String(),
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			ErrInvalidToken,
		},
		{
			"expired",
			signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
				"sub": userID.String(),
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			ErrInvalidToken,
		},
		{
			"missing subject",
			signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			ErrInvalidToken,
		},
		{
			"non-numeric subject",
			signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
				"sub": "alice",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			ErrInvalidToken,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := verifier.Verify(tc.token)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestVerifyRejectsUnsignedAlgorithm(t *testing.T) {
	node, err := snowflake.NewNode(9)
	require.NoError(t, err)

	verifier := NewVerifier(config.Config{AuthJWTSecret: testSecret})

	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": node.Generate().String(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserIDContextRoundTrip(t *testing.T) {
	node, err := snowflake.NewNode(9)
	require.NoError(t, err)
	userID := node.Generate()

	ctx := WithUserID(context.Background(), userID)
	got, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, userID, got)

	_, ok = UserIDFromContext(context.Background())
	assert.False(t, ok)
}
