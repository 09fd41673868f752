package utils

import (
	"fmt"

	"github.com/golang-jwt/jwt"
	"github.com/spf13/viper"

	"github.com/greengate/greengate/internal/pkg/constants"
)

// AuthTokenWrapper is the claims payload of the admin session cookie.
type AuthTokenWrapper struct {
	Subject string
	Secret  string
}

func GenerateAuthToken(w *AuthTokenWrapper) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    w.Subject,
		"secret": w.Secret,
	})

	return token.SignedString([]byte(viper.GetString(constants.ViperSecretKey)))
}

func ParseAuthToken(raw string) (*AuthTokenWrapper, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(viper.GetString(constants.ViperSecretKey)), nil
	})
	if err != nil {
		return nil, constants.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, constants.ErrUnauthorized
	}

	wrapper := &AuthTokenWrapper{}
	wrapper.Subject, _ = claims["sub"].(string)
	wrapper.Secret, _ = claims["secret"].(string)

	return wrapper, nil
}
