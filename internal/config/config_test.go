package config

import (
	"reflect"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Assets.Dir != "assets" {
		t.Errorf("Assets.Dir = %q, want %q", cfg.Assets.Dir, "assets")
	}
	if cfg.Generator.Workers != 4 {
		t.Errorf("Generator.Workers = %d, want 4", cfg.Generator.Workers)
	}
	if cfg.Generator.ValFraction != 0.1 {
		t.Errorf("Generator.ValFraction = %v, want 0.1", cfg.Generator.ValFraction)
	}
	want := []string{"click-icon", "grounding", "wait-loading"}
	if !reflect.DeepEqual(cfg.Generator.TaskTypes, want) {
		t.Errorf("Generator.TaskTypes = %v, want %v", cfg.Generator.TaskTypes, want)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Redis.Addr = %q, want empty", cfg.Redis.Addr)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKERS", "12")
	t.Setenv("TASK_TYPES", "click-icon, grounding")
	t.Setenv("VARY_SUBSET", "false")
	t.Setenv("VAL_FRACTION", "0.25")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Generator.Workers != 12 {
		t.Errorf("Generator.Workers = %d, want 12", cfg.Generator.Workers)
	}
	want := []string{"click-icon", "grounding"}
	if !reflect.DeepEqual(cfg.Generator.TaskTypes, want) {
		t.Errorf("Generator.TaskTypes = %v, want %v", cfg.Generator.TaskTypes, want)
	}
	if cfg.Generator.VarySubset {
		t.Error("Generator.VarySubset = true, want false")
	}
	if cfg.Generator.ValFraction != 0.25 {
		t.Errorf("Generator.ValFraction = %v, want 0.25", cfg.Generator.ValFraction)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want localhost:6379", cfg.Redis.Addr)
	}
}

func TestGetEnvAsInt_Invalid(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	if got := getEnvAsInt("SOME_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt = %d, want fallback 7", got)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("SOME_BOOL", "true")
	if !getEnvAsBool("SOME_BOOL", false) {
		t.Error("getEnvAsBool = false, want true")
	}
	t.Setenv("SOME_BOOL", "nope")
	if !getEnvAsBool("SOME_BOOL", true) {
		t.Error("getEnvAsBool = false, want fallback true")
	}
}

func TestGetEnvAsList_TrimsBlanks(t *testing.T) {
	t.Setenv("SOME_LIST", " a , ,b,")
	got := getEnvAsList("SOME_LIST", nil)
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("getEnvAsList = %v, want %v", got, want)
	}
}
