package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Assets    AssetsConfig
	Generator GeneratorConfig
	Server    ServerConfig
	Redis     RedisConfig
	LogLevel  string
}

// AssetsConfig locates the shared asset set and the annotation file
type AssetsConfig struct {
	Dir            string
	AnnotationPath string
}

// GeneratorConfig holds batch-generation configuration
type GeneratorConfig struct {
	OutputDir          string
	Workers            int
	TaskTypes          []string // task types to generate, comma-separated in env
	UnitsPerTask       int      // scenes per task type
	DesktopCountHint   int
	TaskbarCountHint   int
	VarySubset         bool
	RandomOrder        bool
	Strategy           string // stacked | sparse | random | any
	Mode               string // full_frame | crop_to_region
	CropRegion         string
	WaitPolicy         string // prompts | click_style
	PerIconTolerance   bool
	ValFraction        float64 // fraction of units routed to the validation split
	CheckpointInterval int     // save a checkpoint every N completed units
	RunID              string  // names the checkpoint record; random if empty
}

// ServerConfig holds preview-server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  int
	WriteTimeout int
}

// RedisConfig holds Redis-related configuration; an empty Addr disables
// Redis checkpointing in favor of a local file
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Assets: AssetsConfig{
			Dir:            getEnv("ASSETS_DIR", "assets"),
			AnnotationPath: getEnv("ANNOTATION_PATH", "assets/annotation.yaml"),
		},
		Generator: GeneratorConfig{
			OutputDir:          getEnv("OUTPUT_DIR", "datasets/out"),
			Workers:            getEnvAsInt("WORKERS", 4),
			TaskTypes:          getEnvAsList("TASK_TYPES", []string{"click-icon", "grounding", "wait-loading"}),
			UnitsPerTask:       getEnvAsInt("UNITS_PER_TASK", 100),
			DesktopCountHint:   getEnvAsInt("DESKTOP_COUNT_HINT", 5),
			TaskbarCountHint:   getEnvAsInt("TASKBAR_COUNT_HINT", 2),
			VarySubset:         getEnvAsBool("VARY_SUBSET", true),
			RandomOrder:        getEnvAsBool("RANDOM_ORDER", true),
			Strategy:           getEnv("LAYOUT_STRATEGY", "any"),
			Mode:               getEnv("EMIT_MODE", "full_frame"),
			CropRegion:         getEnv("CROP_REGION", "desktop"),
			WaitPolicy:         getEnv("WAIT_POLICY", "prompts"),
			PerIconTolerance:   getEnvAsBool("PER_ICON_TOLERANCE", false),
			ValFraction:        getEnvAsFloat("VAL_FRACTION", 0.1),
			CheckpointInterval: getEnvAsInt("CHECKPOINT_INTERVAL", 100),
			RunID:              getEnv("RUN_ID", ""),
		},
		Server: ServerConfig{
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, trimming blanks
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
