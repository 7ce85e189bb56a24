package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/claimhawk/desktopgen/internal/batch"
	"github.com/claimhawk/desktopgen/internal/config"
	"github.com/claimhawk/desktopgen/internal/emit"
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

	// A pinned RUN_ID resumes a previous run; otherwise each invocation
	// gets a fresh id so its checkpoints stay separate.
	if cfg.Generator.RunID == "" {
		cfg.Generator.RunID = uuid.NewString()
		logger.Info("Generated run id; set RUN_ID to this value to resume",
			zap.String("run_id", cfg.Generator.RunID))
	}

	// Load the annotation and assets, failing fast on anything the
	// pipeline would trip over mid-run
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
	if err := emitter.Validate(cfg.Generator.TaskTypes); err != nil {
		logger.Fatal("Emitter validation failed", zap.Error(err))
	}

	writer, err := batch.NewWriter(cfg.Generator.OutputDir, cfg.Generator.ValFraction, logger)
	if err != nil {
		logger.Fatal("Failed to create dataset writer", zap.Error(err))
	}
	defer writer.Close()

	store, err := newCheckpointStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create checkpoint store", zap.Error(err))
	}
	defer store.Close()

	runner := batch.NewRunner(cfg.Generator, generator, compositor, emitter, writer, store, logger)

	// SIGINT/SIGTERM cancel the run; in-flight units finish and a final
	// checkpoint is saved before exit.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting batch generation",
		zap.String("run_id", cfg.Generator.RunID),
		zap.Strings("task_types", cfg.Generator.TaskTypes),
		zap.Int("units_per_task", cfg.Generator.UnitsPerTask),
		zap.Int("workers", cfg.Generator.Workers),
		zap.String("output_dir", cfg.Generator.OutputDir))

	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Batch generation interrupted; resume with the logged run id",
				zap.String("run_id", cfg.Generator.RunID))
			return
		}
		logger.Fatal("Batch generation failed", zap.Error(err))
	}

	logger.Info("Batch generation complete",
		zap.String("run_id", cfg.Generator.RunID),
		zap.String("output_dir", cfg.Generator.OutputDir))
}

// newCheckpointStore picks Redis when an address is configured, otherwise a
// JSON file next to the dataset.
func newCheckpointStore(cfg *config.Config, logger *zap.Logger) (batch.CheckpointStore, error) {
	if cfg.Redis.Addr != "" {
		return batch.NewRedisCheckpointStore(cfg.Redis, logger)
	}
	return batch.NewFileCheckpointStore(cfg.Generator.OutputDir, logger)
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}
