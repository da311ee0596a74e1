// Package config loads nerbench.yaml: the workspace root, the corpus export
// location, and the model registry the tagger builds backends from.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model kinds understood by the tagger registry.
const (
	KindHTTP   = "http"
	KindGemini = "gemini"
	KindOpenAI = "openai"
	KindOllama = "ollama"
)

// ModelConfig declares one NER backend.
type ModelConfig struct {
	Name        string  `yaml:"name"`
	Kind        string  `yaml:"kind"`
	URL         string  `yaml:"url,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	Language    string  `yaml:"language,omitempty"`
}

// CorpusConfig locates the OCR export this workflow samples from.
type CorpusConfig struct {
	Manifest      string `yaml:"manifest"`
	OCRDir        string `yaml:"ocr_dir"`
	Subcollection string `yaml:"subcollection"`
}

// Config is the parsed nerbench.yaml.
type Config struct {
	Workspace string        `yaml:"workspace"`
	Corpus    CorpusConfig  `yaml:"corpus"`
	Models    []ModelConfig `yaml:"models"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Workspace: "./test_dataset",
		Corpus: CorpusConfig{
			Manifest: "./export_bundle/documents.jsonl",
			OCRDir:   "./export_bundle/ocr",
		},
		Models: []ModelConfig{
			{Name: "spacy_en_core_web_sm", Kind: KindHTTP, Language: "en"},
		},
	}
}

// Load reads the config file and applies defaults and environment
// overrides. An empty path falls back to NERBENCH_CONFIG, then
// ./nerbench.yaml. A missing file on the default search path is not an
// error; a missing explicitly-named file is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv("NERBENCH_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = "nerbench.yaml"
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Workspace == "" {
		c.Workspace = d.Workspace
	}
	if c.Corpus.Manifest == "" {
		c.Corpus.Manifest = d.Corpus.Manifest
	}
	if c.Corpus.OCRDir == "" {
		c.Corpus.OCRDir = d.Corpus.OCRDir
	}
	if len(c.Models) == 0 {
		c.Models = d.Models
	}
	for i := range c.Models {
		if c.Models[i].Language == "" {
			c.Models[i].Language = "en"
		}
		switch c.Models[i].Kind {
		case KindGemini:
			if c.Models[i].Model == "" {
				c.Models[i].Model = "gemini-1.5-flash"
			}
			if c.Models[i].Temperature == 0 {
				c.Models[i].Temperature = 0.1
			}
		case KindOpenAI:
			if c.Models[i].Model == "" {
				c.Models[i].Model = "gpt-4o-mini"
			}
			if c.Models[i].Temperature == 0 {
				c.Models[i].Temperature = 0.1
			}
		case KindOllama:
			if c.Models[i].Model == "" {
				c.Models[i].Model = "llama3.1"
			}
			if c.Models[i].Temperature == 0 {
				c.Models[i].Temperature = 0.1
			}
		}
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NERBENCH_WORKSPACE"); v != "" {
		c.Workspace = v
	}
	if v := os.Getenv("NERBENCH_CORPUS_MANIFEST"); v != "" {
		c.Corpus.Manifest = v
	}
	if v := os.Getenv("NERBENCH_OCR_DIR"); v != "" {
		c.Corpus.OCRDir = v
	}
	if v := os.Getenv("NERBENCH_SUBCOLLECTION"); v != "" {
		c.Corpus.Subcollection = v
	}
}

// Model looks up one backend declaration by name.
func (c *Config) Model(name string) (ModelConfig, error) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, nil
		}
	}
	return ModelConfig{}, fmt.Errorf("model %q not found in config (known: %s)", name, c.modelNames())
}

func (c *Config) modelNames() string {
	names := ""
	for i, m := range c.Models {
		if i > 0 {
			names += ", "
		}
		names += m.Name
	}
	return names
}
