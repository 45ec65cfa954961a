package auth

import (
	// Std
	"strings"

	// Mapconfig
	"github.com/momentum-xyz/mapconfig/internal/logger"
	"github.com/momentum-xyz/mapconfig/utils"

	// Third-Party
	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var log = logger.L().With("package", "auth")

var ErrUnauthorized = errors.New("unauthorized")

type TokenVerifier interface {
	Verify(token string) (jwt.MapClaims, error)
}

// NewTokenVerifier accepts HS256 tokens signed with secret.
func NewTokenVerifier(secret []byte) TokenVerifier {
	return &verifier{
		secret: secret,
	}
}

type verifier struct {
	secret []byte
}

func (v *verifier) Verify(token string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(
		token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.secret, nil
		},
	)
	if err != nil {
		return nil, errors.WithMessage(ErrUnauthorized, err.Error())
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !parsed.Valid || !ok {
		return nil, errors.WithMessage(ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errors.WithMessage(ErrUnauthorized, "missing bearer token")
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}

// Subject returns the "sub" claim for logging.
func Subject(claims jwt.MapClaims) string {
	sub := utils.FromAnyMap(map[string]any(claims), "sub", "")
	if sub == "" {
		log.Debug("auth: token without subject")
	}
	return sub
}
