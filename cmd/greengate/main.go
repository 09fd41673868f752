package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/greengate/greengate/internal/api"
	"github.com/greengate/greengate/internal/pkg/config"
	"github.com/greengate/greengate/internal/pkg/logger"
	"github.com/greengate/greengate/internal/pkg/store"
	"github.com/greengate/greengate/internal/pkg/store/xpgx"
	"github.com/greengate/greengate/internal/service/validation"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(ctx, "config: ", err)
	}

	logger.Init(cfg.Debug)
	defer logger.Sync()

	pool, err := xpgx.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal(ctx, "connect database: ", err)
	}
	defer pool.Close()

	validationService := validation.NewService(store.NewStore(pool), cfg)

	apiService, err := api.NewAPIService(validationService, cfg)
	if err != nil {
		logger.Fatal(ctx, "init api: ", err)
	}

	go apiService.Serve(cfg.ListenAddr)
	logger.Infof(ctx, "listening on %s", cfg.ListenAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := apiService.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "shutdown: %s", err.Error())
	}
}
