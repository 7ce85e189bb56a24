package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/claimhawk/desktopgen/internal/config"
)

// CheckpointStore persists per-task progress so an interrupted run can
// resume without regenerating completed units. The stored value is the next
// unit index to generate.
type CheckpointStore interface {
	Load(ctx context.Context, runID, taskType string) (int, error)
	Save(ctx context.Context, runID, taskType string, nextIndex int) error
	Close() error
}

func checkpointKey(runID, taskType string) string {
	return fmt.Sprintf("desktopgen:checkpoint:%s:%s", runID, taskType)
}

// RedisCheckpointStore keeps checkpoints in Redis so a run can be resumed
// from any host that shares the instance.
type RedisCheckpointStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCheckpointStore connects to Redis and verifies the connection
func NewRedisCheckpointStore(cfg config.RedisConfig, logger *zap.Logger) (*RedisCheckpointStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis for checkpoints", zap.String("addr", cfg.Addr))

	return &RedisCheckpointStore{client: rdb, logger: logger}, nil
}

func (s *RedisCheckpointStore) Load(ctx context.Context, runID, taskType string) (int, error) {
	val, err := s.client.Get(ctx, checkpointKey(runID, taskType)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return val, nil
}

func (s *RedisCheckpointStore) Save(ctx context.Context, runID, taskType string, nextIndex int) error {
	if err := s.client.Set(ctx, checkpointKey(runID, taskType), nextIndex, 0).Err(); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	s.logger.Debug("Checkpoint saved",
		zap.String("run_id", runID),
		zap.String("task_type", taskType),
		zap.Int("next_index", nextIndex))
	return nil
}

func (s *RedisCheckpointStore) Close() error {
	return s.client.Close()
}

// FileCheckpointStore keeps checkpoints in a JSON file next to the output.
// It is the default when no Redis address is configured.
type FileCheckpointStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileCheckpointStore creates a file-backed store under dir
func NewFileCheckpointStore(dir string, logger *zap.Logger) (*FileCheckpointStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	return &FileCheckpointStore{
		path:   filepath.Join(dir, "checkpoints.json"),
		logger: logger,
	}, nil
}

func (s *FileCheckpointStore) Load(ctx context.Context, runID, taskType string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return 0, err
	}
	return m[checkpointKey(runID, taskType)], nil
}

func (s *FileCheckpointStore) Save(ctx context.Context, runID, taskType string, nextIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return err
	}
	m[checkpointKey(runID, taskType)] = nextIndex

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoints: %w", err)
	}

	// Write-then-rename so a crash mid-save never corrupts the file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}
	return nil
}

func (s *FileCheckpointStore) Close() error {
	return nil
}

func (s *FileCheckpointStore) read() (map[string]int, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}
	m := map[string]int{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint file: %w", err)
	}
	return m, nil
}
