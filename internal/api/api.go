package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/greengate/greengate/internal/api/controller"
	"github.com/greengate/greengate/internal/pkg/config"
	"github.com/greengate/greengate/internal/pkg/logger"
	"github.com/greengate/greengate/internal/service/validation"
)

type APIService struct {
	router            *echo.Echo
	cfg               *config.Config
	validationService *validation.Service
}

func (svc *APIService) Serve(addr string) {
	logger.Fatal(context.Background(), svc.router.Start(addr))
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

func NewAPIService(validationService *validation.Service, cfg *config.Config) (*APIService, error) {
	svc := &APIService{
		router:            echo.New(),
		cfg:               cfg,
		validationService: validationService,
	}

	svc.router.HideBanner = true
	svc.router.Logger.SetLevel(log.WARN)
	if cfg.Debug {
		svc.router.Logger.SetLevel(log.DEBUG)
	}

	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.HTTPErrorHandler = httpErrorHandler
	svc.router.Use(middleware.Logger())
	svc.router.Use(middleware.Recover())
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.AllowedOrigin},
		AllowMethods: []string{echo.GET, echo.POST},
		AllowHeaders: []string{"Content-Type", "x-api-key"},
	}))

	cntrl := controller.NewController(validationService)

	svc.router.GET("/healthz", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := svc.router.Group("/api/v1")

	validations := api.Group("/validations")
	validations.POST("/quick", cntrl.QuickValidate)
	validations.POST("/validate", cntrl.Validate, svc.APIKeyMiddleware)
	validations.GET("/:id", cntrl.GetValidation)

	metadata := api.Group("/metadata")
	metadata.GET("/freshness", cntrl.Freshness)

	admin := api.Group("/admin", svc.AdminMiddleware)
	admin.GET("/validations", cntrl.ListValidations)

	return svc, nil
}
