package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/compose"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/pipeline"
	"server/internal/rembg"
	"server/internal/storage"
	"server/internal/sweep"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	files, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare local storage layout")
	}

	ctx := context.Background()
	var store storage.Store
	switch cfg.StorageBackend {
	case infra.BackendMemory:
		store = storage.NewMemory()
		logger.Warn().Msg("using in-memory object store; artifacts will not survive restarts")
	default:
		s3store, err := storage.NewS3Store(ctx, cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build s3 gateway")
		}
		store = s3store
	}

	removal := rembg.NewService(func() (rembg.Segmenter, error) {
		return rembg.NewHTTPSegmenter(cfg.SegmentEndpoint, cfg.SegmentTimeout), nil
	})

	composer := compose.New(compose.DefaultOptions(), logger)
	orchestrator := pipeline.New(store, files, composer, pipeline.Options{
		SignedTTL:     cfg.SignedURLTTL,
		StoreTimeout:  cfg.StoreTimeout,
		RenderTimeout: cfg.RenderTimeout,
		TemplatePath:  cfg.TemplatePath,
		AudioPath:     cfg.AudioPath,
	}, logger)

	app := handlers.NewApp(logger, orchestrator, removal)
	router := httpapi.NewRouter(app, logger, httpapi.Options{
		StaticDir:       cfg.StaticDir,
		UploadsDir:      files.UploadsPath(),
		VideosDir:       files.VideosPath(),
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	sweeper := sweep.New(files.TempPath(), cfg.TempMaxAge, logger)
	cronJobs, err := sweeper.Schedule(cfg.SweepSchedule)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule temp sweeper")
	}
	defer cronJobs.Stop()

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
