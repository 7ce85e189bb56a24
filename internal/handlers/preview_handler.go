package handlers

import (
	"encoding/json"
	"fmt"
	"image/png"
	"math/rand"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/claimhawk/desktopgen/internal/batch"
	"github.com/claimhawk/desktopgen/internal/config"
	"github.com/claimhawk/desktopgen/internal/emit"
	"github.com/claimhawk/desktopgen/internal/layout"
	"github.com/claimhawk/desktopgen/internal/scene"
	"github.com/claimhawk/desktopgen/pkg/models"
)

// PreviewHandler serves rendered scenes and emitted samples over HTTP so a
// dataset can be inspected before kicking off a batch run.
type PreviewHandler struct {
	ann        *models.AnnotationConfig
	generator  *layout.Generator
	compositor *scene.Compositor
	emitter    *emit.Emitter
	cfg        config.GeneratorConfig
	logger     *zap.Logger
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(
	ann *models.AnnotationConfig,
	generator *layout.Generator,
	compositor *scene.Compositor,
	emitter *emit.Emitter,
	cfg config.GeneratorConfig,
	logger *zap.Logger,
) *PreviewHandler {
	return &PreviewHandler{
		ann:        ann,
		generator:  generator,
		compositor: compositor,
		emitter:    emitter,
		cfg:        cfg,
		logger:     logger,
	}
}

// RegisterRoutes registers the preview routes
func (h *PreviewHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/catalog", h.handleCatalog)
	mux.HandleFunc("/scene", h.handleScene)
	mux.HandleFunc("/samples", h.handleSamples)
}

// handleHealth handles GET /health - returns service health status
func (h *PreviewHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "desktopgen",
		"version": "1.0.0",
	})
}

type iconInfo struct {
	ID       string `json:"id"`
	Label    string `json:"label,omitempty"`
	Required bool   `json:"required"`
}

type catalogResponse struct {
	Screen       [2]int     `json:"screen"`
	DesktopIcons []iconInfo `json:"desktop_icons"`
	TaskbarIcons []iconInfo `json:"taskbar_icons"`
	TaskTypes    []string   `json:"task_types"`
}

// handleCatalog handles GET /catalog - returns the configured icon catalogs
func (h *PreviewHandler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	icons := func(cat *models.IconCatalog) []iconInfo {
		var out []iconInfo
		for _, e := range cat.Entries() {
			out = append(out, iconInfo{ID: e.ID, Label: e.Label, Required: e.Required})
		}
		return out
	}

	response := catalogResponse{
		Screen:       [2]int{h.ann.Screen.Width, h.ann.Screen.Height},
		DesktopIcons: icons(h.ann.DesktopCatalog()),
		TaskbarIcons: icons(h.ann.TaskbarCatalog()),
		TaskTypes:    []string{emit.TaskClickIcon, emit.TaskGrounding, emit.TaskWaitLoading},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode catalog response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("Served catalog",
		zap.Int("desktop_icons", len(response.DesktopIcons)),
		zap.Int("taskbar_icons", len(response.TaskbarIcons)))
}

// handleScene handles GET /scene?seed=N&loading=bool - renders one scene as PNG
func (h *PreviewHandler) handleScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	seed, err := parseSeed(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	loading := r.URL.Query().Get("loading") == "true"

	rendered := h.renderScene(seed, loading)

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, rendered.Image); err != nil {
		h.logger.Error("Failed to encode scene PNG", zap.Error(err))
		return
	}

	h.logger.Debug("Served scene preview",
		zap.Int64("seed", seed),
		zap.Bool("loading", loading))
}

type samplesResponse struct {
	Seed        int64              `json:"seed"`
	TaskType    string             `json:"task_type"`
	Samples     []models.Sample    `json:"samples"`
	GroundTruth models.GroundTruth `json:"ground_truth"`
}

// handleSamples handles GET /samples?seed=N&task=T - emits samples as JSON
func (h *PreviewHandler) handleSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	seed, err := parseSeed(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	taskType := r.URL.Query().Get("task")
	if taskType == "" {
		taskType = emit.TaskClickIcon
	}
	if err := h.emitter.Validate([]string{taskType}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// index targets a specific unit of a batch run: the preview uses the
	// same seed derivation the runner does, so the output matches exactly.
	if raw := r.URL.Query().Get("index"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid index %q", raw), http.StatusBadRequest)
			return
		}
		seed = batch.UnitSeed(taskType, index)
	}

	// One RNG threads through layout and emission, matching the order the
	// batch runner consumes it in.
	rng := rand.New(rand.NewSource(seed))
	state := h.generator.Generate(rng, h.cfg.DesktopCountHint, h.cfg.TaskbarCountHint, taskType == emit.TaskWaitLoading)
	rendered := h.compositor.Render(state)

	baseID := fmt.Sprintf("preview_%d", seed)
	emission, err := h.emitter.Emit(rendered, rng, taskType, baseID)
	if err != nil {
		h.logger.Error("Failed to emit preview samples",
			zap.String("task_type", taskType),
			zap.Error(err))
		http.Error(w, "Failed to emit samples", http.StatusInternalServerError)
		return
	}

	response := samplesResponse{
		Seed:        seed,
		TaskType:    taskType,
		Samples:     emission.Samples,
		GroundTruth: rendered.GroundTruth,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode samples response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("Served sample preview",
		zap.Int64("seed", seed),
		zap.String("task_type", taskType),
		zap.Int("samples", len(emission.Samples)))
}

// renderScene runs layout and compositing for a preview request. The seed
// feeds the same derivation the batch runner uses, so a preview of
// seed N matches the batch unit generated from it.
func (h *PreviewHandler) renderScene(seed int64, loading bool) *scene.RenderedScene {
	rng := rand.New(rand.NewSource(seed))
	state := h.generator.Generate(rng, h.cfg.DesktopCountHint, h.cfg.TaskbarCountHint, loading)
	return h.compositor.Render(state)
}

func parseSeed(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("seed")
	if raw == "" {
		return 0, nil
	}
	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q", raw)
	}
	return seed, nil
}
