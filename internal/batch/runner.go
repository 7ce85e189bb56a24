package batch

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/claimhawk/desktopgen/internal/config"
	"github.com/claimhawk/desktopgen/internal/emit"
	"github.com/claimhawk/desktopgen/internal/layout"
	"github.com/claimhawk/desktopgen/internal/scene"
)

// Runner drives batch generation. For every configured task type it walks
// unit indices from the last checkpoint, derives a per-unit seed, and runs
// the layout, compositor, and emitter pipeline on a pool of workers.
type Runner struct {
	cfg        config.GeneratorConfig
	generator  *layout.Generator
	compositor *scene.Compositor
	emitter    *emit.Emitter
	writer     *Writer
	store      CheckpointStore
	logger     *zap.Logger
}

// NewRunner creates a runner over an already-wired pipeline
func NewRunner(
	cfg config.GeneratorConfig,
	generator *layout.Generator,
	compositor *scene.Compositor,
	emitter *emit.Emitter,
	writer *Writer,
	store CheckpointStore,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		cfg:        cfg,
		generator:  generator,
		compositor: compositor,
		emitter:    emitter,
		writer:     writer,
		store:      store,
		logger:     logger,
	}
}

type unitResult struct {
	index int
	err   error
}

// Run generates all configured units, one task type at a time. On context
// cancellation in-flight units finish, a final checkpoint is saved, and
// ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context) error {
	for _, taskType := range r.cfg.TaskTypes {
		if err := r.runTask(ctx, taskType); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runTask(ctx context.Context, taskType string) error {
	start, err := r.store.Load(ctx, r.cfg.RunID, taskType)
	if err != nil {
		return err
	}
	if start >= r.cfg.UnitsPerTask {
		r.logger.Info("Task already complete",
			zap.String("task_type", taskType),
			zap.Int("units", r.cfg.UnitsPerTask))
		return nil
	}

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	r.logger.Info("Generating units",
		zap.String("task_type", taskType),
		zap.Int("start", start),
		zap.Int("units", r.cfg.UnitsPerTask),
		zap.Int("workers", workers))

	jobs := make(chan int, workers*2)
	results := make(chan unitResult, workers*2)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for index := range jobs {
				r.logger.Debug("Worker processing unit",
					zap.Int("worker_id", id),
					zap.String("task_type", taskType),
					zap.Int("index", index))
				results <- unitResult{index: index, err: r.generateUnit(taskType, index)}
			}
		}(w)
	}

	go func() {
		defer close(jobs)
		for i := start; i < r.cfg.UnitsPerTask; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Track the contiguous completion frontier so a checkpoint never skips
	// an unfinished unit.
	done := make(map[int]bool)
	frontier := start
	sinceCheckpoint := 0
	var firstErr error

	for res := range results {
		if res.err != nil {
			r.logger.Error("Unit generation failed",
				zap.String("task_type", taskType),
				zap.Int("index", res.index),
				zap.Error(res.err))
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}

		done[res.index] = true
		for done[frontier] {
			delete(done, frontier)
			frontier++
			sinceCheckpoint++
		}

		if r.cfg.CheckpointInterval > 0 && sinceCheckpoint >= r.cfg.CheckpointInterval {
			r.checkpoint(taskType, frontier)
			sinceCheckpoint = 0
		}
	}

	r.checkpoint(taskType, frontier)

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if frontier < r.cfg.UnitsPerTask {
		return fmt.Errorf("task %s stopped at unit %d of %d", taskType, frontier, r.cfg.UnitsPerTask)
	}

	r.logger.Info("Task complete",
		zap.String("task_type", taskType),
		zap.Int("units", r.cfg.UnitsPerTask))
	return nil
}

// checkpoint saves progress on a background context so a cancelled run
// still records how far it got.
func (r *Runner) checkpoint(taskType string, nextIndex int) {
	if err := r.store.Save(context.Background(), r.cfg.RunID, taskType, nextIndex); err != nil {
		r.logger.Warn("Failed to save checkpoint",
			zap.String("task_type", taskType),
			zap.Int("next_index", nextIndex),
			zap.Error(err))
	}
}

// generateUnit runs the full pipeline for one unit
func (r *Runner) generateUnit(taskType string, index int) error {
	rng := rand.New(rand.NewSource(UnitSeed(taskType, index)))

	loading := taskType == emit.TaskWaitLoading
	state := r.generator.Generate(rng, r.cfg.DesktopCountHint, r.cfg.TaskbarCountHint, loading)
	sc := r.compositor.Render(state)

	baseID := fmt.Sprintf("%s_%d", taskType, index)
	emission, err := r.emitter.Emit(sc, rng, taskType, baseID)
	if err != nil {
		return fmt.Errorf("failed to emit samples: %w", err)
	}

	return r.writer.WriteUnit(taskType, index, emission.Image, emission.Samples, sc.GroundTruth)
}
