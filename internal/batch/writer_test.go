package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/claimhawk/desktopgen/pkg/models"
)

func readJSONL(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	var out []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("Invalid JSONL line in %s: %v", path, err)
		}
		out = append(out, rec)
	}
	return out
}

func testUnit(taskType string, index int) (*image.RGBA, []models.Sample) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	samples := []models.Sample{
		{ID: "a", TaskType: taskType, Prompt: "Click the thing."},
		{ID: "b", TaskType: taskType, Prompt: "Click the other thing."},
	}
	return img, samples
}

func TestWriter_SplitsAndPersists(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 0.5, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	for i := 0; i < 4; i++ {
		img, samples := testUnit("click-icon", i)
		if err := w.WriteUnit("click-icon", i, img, samples, models.GroundTruth{}); err != nil {
			t.Fatalf("WriteUnit(%d) error = %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	for i := 0; i < 4; i++ {
		name := filepath.Join(dir, "images", fmt.Sprintf("click-icon_%d.png", i))
		if _, err := os.Stat(name); err != nil {
			t.Errorf("image %s missing: %v", name, err)
		}
	}

	// Stride 2 routes odd indices to validation.
	train := readJSONL(t, filepath.Join(dir, "train.jsonl"))
	val := readJSONL(t, filepath.Join(dir, "val.jsonl"))
	if len(train) != 4 {
		t.Errorf("train.jsonl has %d samples, want 4", len(train))
	}
	if len(val) != 4 {
		t.Errorf("val.jsonl has %d samples, want 4", len(val))
	}

	if img, ok := train[0]["image"].(string); !ok || img != filepath.Join("images", "click-icon_0.png") {
		t.Errorf("train sample image = %v, want images/click-icon_0.png", train[0]["image"])
	}
	if img, ok := val[0]["image"].(string); !ok || img != filepath.Join("images", "click-icon_1.png") {
		t.Errorf("val sample image = %v, want images/click-icon_1.png", val[0]["image"])
	}

	audit := readJSONL(t, filepath.Join(dir, "ground_truth.jsonl"))
	if len(audit) != 4 {
		t.Errorf("ground_truth.jsonl has %d records, want 4", len(audit))
	}
}

func TestWriter_NoValidationSplit(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		img, samples := testUnit("grounding", i)
		if err := w.WriteUnit("grounding", i, img, samples, models.GroundTruth{}); err != nil {
			t.Fatalf("WriteUnit(%d) error = %v", i, err)
		}
	}
	w.Close()

	train := readJSONL(t, filepath.Join(dir, "train.jsonl"))
	val := readJSONL(t, filepath.Join(dir, "val.jsonl"))
	if len(train) != 6 {
		t.Errorf("train.jsonl has %d samples, want 6", len(train))
	}
	if len(val) != 0 {
		t.Errorf("val.jsonl has %d samples, want 0", len(val))
	}
}

func TestWriter_AppendsOnReopen(t *testing.T) {
	dir := t.TempDir()

	for run := 0; run < 2; run++ {
		w, err := NewWriter(dir, 0, zap.NewNop())
		if err != nil {
			t.Fatalf("NewWriter() error = %v", err)
		}
		img, samples := testUnit("click-icon", run)
		if err := w.WriteUnit("click-icon", run, img, samples, models.GroundTruth{}); err != nil {
			t.Fatalf("WriteUnit() error = %v", err)
		}
		w.Close()
	}

	train := readJSONL(t, filepath.Join(dir, "train.jsonl"))
	if len(train) != 4 {
		t.Errorf("train.jsonl has %d samples after two runs, want 4", len(train))
	}
}
