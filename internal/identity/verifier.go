package identity

import (
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/grannhjalp/grannhjalp/internal/config"
	"go.uber.org/fx"
)

var (
	ErrMissingToken = errors.New("missing_token")
	ErrInvalidToken = errors.New("invalid_token")
)

// Verifier validates access tokens issued by the identity provider.
// Token issuance is not this service's concern; only the shared-secret
// signature and the subject claim are checked here.
type Verifier struct {
	secret []byte
}

func NewVerifier(cfg config.Config) *Verifier {
	return &Verifier{secret: []byte(cfg.AuthJWTSecret)}
}

// Verify parses the bearer token and returns the caller's user ID.
func (v *Verifier) Verify(raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrMissingToken
	}
	if len(v.secret) == 0 {
		return 0, ErrInvalidToken
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return 0, ErrInvalidToken
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(subject))
	if err != nil || userID == 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

var Module = fx.Module("identity",
	fx.Provide(NewVerifier),
)
