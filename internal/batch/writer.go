package batch

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/claimhawk/desktopgen/pkg/models"
)

// Writer persists generated units: one PNG per scene under images/, sample
// records as JSONL split into train and validation files, and a
// ground-truth audit log for inspection. Safe for concurrent use.
type Writer struct {
	outputDir string
	valStride int // every valStride-th unit goes to validation; 0 disables the split

	mu       sync.Mutex
	train    *os.File
	val      *os.File
	audit    *os.File
	trainEnc *json.Encoder
	valEnc   *json.Encoder
	auditEnc *json.Encoder

	logger *zap.Logger
}

type auditRecord struct {
	Image       string             `json:"image"`
	TaskType    string             `json:"task_type"`
	Index       int                `json:"index"`
	GroundTruth models.GroundTruth `json:"ground_truth"`
}

// NewWriter creates the output layout and opens the JSONL files in append
// mode, so a resumed run extends the existing dataset.
func NewWriter(outputDir string, valFraction float64, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(filepath.Join(outputDir, "images"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	open := func(name string) (*os.File, error) {
		f, err := os.OpenFile(filepath.Join(outputDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		return f, nil
	}

	train, err := open("train.jsonl")
	if err != nil {
		return nil, err
	}
	val, err := open("val.jsonl")
	if err != nil {
		train.Close()
		return nil, err
	}
	audit, err := open("ground_truth.jsonl")
	if err != nil {
		train.Close()
		val.Close()
		return nil, err
	}

	stride := 0
	if valFraction > 0 {
		stride = int(1.0/valFraction + 0.5)
		if stride < 2 {
			stride = 2
		}
	}

	return &Writer{
		outputDir: outputDir,
		valStride: stride,
		train:     train,
		val:       val,
		audit:     audit,
		trainEnc:  json.NewEncoder(train),
		valEnc:    json.NewEncoder(val),
		auditEnc:  json.NewEncoder(audit),
		logger:    logger,
	}, nil
}

// WriteUnit persists one generated unit: the scene image, its samples with
// the image path filled in, and an audit record of the ground truth.
func (w *Writer) WriteUnit(taskType string, index int, img *image.RGBA, samples []models.Sample, gt models.GroundTruth) error {
	relPath := filepath.Join("images", fmt.Sprintf("%s_%d.png", taskType, index))

	f, err := os.Create(filepath.Join(w.outputDir, relPath))
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close image file: %w", err)
	}

	enc := w.trainEnc
	split := "train"
	if w.isVal(index) {
		enc = w.valEnc
		split = "val"
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range samples {
		samples[i].Image = relPath
		if err := enc.Encode(samples[i]); err != nil {
			return fmt.Errorf("failed to write sample: %w", err)
		}
	}
	if err := w.auditEnc.Encode(auditRecord{
		Image:       relPath,
		TaskType:    taskType,
		Index:       index,
		GroundTruth: gt,
	}); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}

	w.logger.Debug("Unit written",
		zap.String("task_type", taskType),
		zap.Int("index", index),
		zap.String("split", split),
		zap.Int("samples", len(samples)))

	return nil
}

// isVal routes units to the validation split deterministically by index, so
// a resumed run keeps the same split membership.
func (w *Writer) isVal(index int) bool {
	return w.valStride > 0 && index%w.valStride == w.valStride-1
}

// Close flushes and closes the JSONL files
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	for _, f := range []*os.File{w.train, w.val, w.audit} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
