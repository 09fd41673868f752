package api

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/greengate/greengate/internal/pkg/constants"
	"github.com/greengate/greengate/internal/pkg/utils"
)

// APIKeyMiddleware guards the metered validation endpoint. An empty
// configured key disables the check (local development).
func (svc *APIService) APIKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if svc.cfg.APIKey == "" {
			return next(ctx)
		}

		key := ctx.Request().Header.Get(constants.HeaderAPIKey)
		if subtle.ConstantTimeCompare([]byte(key), []byte(svc.cfg.APIKey)) != 1 {
			return constants.ErrUnauthorized
		}

		return next(ctx)
	}
}

func (svc *APIService) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(constants.CookieKeySecretToken)
		if err != nil {
			return constants.ErrUnauthorized
		}

		token, err := utils.ParseAuthToken(cookie.Value)
		if err != nil {
			return err
		}

		if token.Secret != viper.GetString(constants.ViperSecretKey) {
			return constants.ErrUnauthorized
		}

		return next(ctx)
	}
}
