package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/claimhawk/desktopgen/internal/config"
	"github.com/claimhawk/desktopgen/internal/emit"
	"github.com/claimhawk/desktopgen/internal/handlers"
	"github.com/claimhawk/desktopgen/internal/layout"
	"github.com/claimhawk/desktopgen/internal/scene"
	"github.com/claimhawk/desktopgen/pkg/models"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Load the annotation and assets the preview pipeline runs against
	ann, err := models.LoadAnnotation(cfg.Assets.AnnotationPath)
	if err != nil {
		logger.Fatal("Failed to load annotation", zap.Error(err))
	}
	assets, err := scene.LoadAssets(cfg.Assets.Dir, ann, logger)
	if err != nil {
		logger.Fatal("Failed to load assets", zap.Error(err))
	}
	if err := assets.Validate(ann); err != nil {
		logger.Fatal("Asset validation failed", zap.Error(err))
	}

	strategy, err := layout.ParseStrategy(cfg.Generator.Strategy)
	if err != nil {
		logger.Fatal("Invalid layout strategy", zap.Error(err))
	}
	generator := layout.New(ann, layout.Options{
		VarySubset:  cfg.Generator.VarySubset,
		RandomOrder: cfg.Generator.RandomOrder,
		Strategy:    strategy,
	}, logger)
	compositor := scene.NewCompositor(assets, ann, logger)

	mode, err := emit.ParseMode(cfg.Generator.Mode)
	if err != nil {
		logger.Fatal("Invalid emit mode", zap.Error(err))
	}
	waitPolicy, err := emit.ParseWaitPolicy(cfg.Generator.WaitPolicy)
	if err != nil {
		logger.Fatal("Invalid wait policy", zap.Error(err))
	}
	emitter, err := emit.New(ann, emit.Options{
		Mode:             mode,
		CropRegion:       cfg.Generator.CropRegion,
		WaitPolicy:       waitPolicy,
		PerIconTolerance: cfg.Generator.PerIconTolerance,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create emitter", zap.Error(err))
	}

	// Create HTTP server for the preview API
	mux := http.NewServeMux()
	previewHandler := handlers.NewPreviewHandler(ann, generator, compositor, emitter, cfg.Generator, logger)
	previewHandler.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	logger.Info("Preview server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("annotation", cfg.Assets.AnnotationPath),
		zap.String("assets", cfg.Assets.Dir))

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Server shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}
