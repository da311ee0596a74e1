package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workspace != "./test_dataset" {
		t.Errorf("Expected default workspace, got %s", cfg.Workspace)
	}
	if len(cfg.Models) != 1 || cfg.Models[0].Name != "spacy_en_core_web_sm" {
		t.Errorf("Expected default model registry, got %+v", cfg.Models)
	}
}

func TestLoadExplicitMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("Expected error for explicitly named missing config, got nil")
	}
}

func TestLoadParsesFileAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nerbench.yaml")

	content := `workspace: /data/prairie_ts
corpus:
  manifest: /exports/documents.parquet
  subcollection: saskatchewan_1808_1946
models:
  - name: spacy_en_core_web_sm
    kind: http
    url: http://localhost:8400
  - name: gemini-flash
    kind: gemini
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Workspace != "/data/prairie_ts" {
		t.Errorf("Expected workspace from file, got %s", cfg.Workspace)
	}
	if cfg.Corpus.Manifest != "/exports/documents.parquet" {
		t.Errorf("Expected manifest from file, got %s", cfg.Corpus.Manifest)
	}
	// Omitted OCR dir keeps its default.
	if cfg.Corpus.OCRDir != "./export_bundle/ocr" {
		t.Errorf("Expected default OCR dir, got %s", cfg.Corpus.OCRDir)
	}

	gemini, err := cfg.Model("gemini-flash")
	if err != nil {
		t.Fatalf("Model lookup failed: %v", err)
	}
	if gemini.Model != "gemini-1.5-flash" {
		t.Errorf("Expected default gemini model name, got %s", gemini.Model)
	}
	if gemini.Temperature != 0.1 {
		t.Errorf("Expected default temperature 0.1, got %v", gemini.Temperature)
	}
	if gemini.Language != "en" {
		t.Errorf("Expected default language en, got %s", gemini.Language)
	}

	spacy, err := cfg.Model("spacy_en_core_web_sm")
	if err != nil {
		t.Fatalf("Model lookup failed: %v", err)
	}
	if spacy.URL != "http://localhost:8400" {
		t.Errorf("Expected url from file, got %s", spacy.URL)
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nerbench.yaml")
	if err := os.WriteFile(path, []byte("workspace: [not: valid"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed config, got nil")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NERBENCH_WORKSPACE", "/override/ws")
	t.Setenv("NERBENCH_CORPUS_MANIFEST", "/override/docs.jsonl")
	t.Setenv("NERBENCH_SUBCOLLECTION", "red_river_1800_1870")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workspace != "/override/ws" {
		t.Errorf("Expected env workspace, got %s", cfg.Workspace)
	}
	if cfg.Corpus.Manifest != "/override/docs.jsonl" {
		t.Errorf("Expected env manifest, got %s", cfg.Corpus.Manifest)
	}
	if cfg.Corpus.Subcollection != "red_river_1800_1870" {
		t.Errorf("Expected env subcollection, got %s", cfg.Corpus.Subcollection)
	}
}

func TestModelUnknownName(t *testing.T) {
	cfg := Default()
	_, err := cfg.Model("nope")
	if err == nil {
		t.Error("Expected error for unknown model, got nil")
	}
}
