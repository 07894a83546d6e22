// Package config loads the pipeline configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
	"github.com/lehigh-university-libraries/thesis-ner/internal/training"
)

// OCR engines.
const (
	EngineTesseract = "tesseract"
	EnginePDFText   = "pdftext"
	EngineLLM       = "llm"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "thesis-ner.yaml"

// Config represents the pipeline configuration.
type Config struct {
	// Labels are the record fields aligned against the cover page, in scan order.
	Labels        []string `yaml:"labels"`
	MinYear       int      `yaml:"min_year"`
	DocumentTypes []string `yaml:"document_types"`
	Workers       int      `yaml:"workers"`

	OCR   OCRConfig   `yaml:"ocr"`
	Crawl CrawlConfig `yaml:"crawl"`
}

// OCRConfig controls cover page text extraction.
type OCRConfig struct {
	Engine   string `yaml:"engine"`
	Language string `yaml:"language"`
	DPI      int    `yaml:"dpi"`
	// Page is the zero-based page index holding the cover page.
	Page int `yaml:"page"`
	// MinArtifactArea is the share of the page area above which a dark
	// component is treated as a stamp or logo and removed before OCR.
	MinArtifactArea float64 `yaml:"min_artifact_area"`
	Provider        string  `yaml:"provider"`
	Model           string  `yaml:"model"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
}

// CrawlConfig controls repository acquisition.
type CrawlConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	DelayMS        int    `yaml:"delay_ms"`
	UserAgent      string `yaml:"user_agent"`
	// MaxPages limits the listing pages followed per community, 0 means all.
	MaxPages int `yaml:"max_pages"`
}

// Timeout returns the OCR timeout per document.
func (c OCRConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the HTTP client timeout.
func (c CrawlConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Delay returns the pause between requests.
func (c CrawlConfig) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Labels:        append([]string(nil), training.DefaultLabelFields...),
		MinYear:       corpus.DefaultMinYear,
		DocumentTypes: append([]string(nil), corpus.DefaultDocumentTypes...),
		Workers:       runtime.NumCPU(),
		OCR: OCRConfig{
			Engine:          EngineTesseract,
			Language:        "spa",
			DPI:             300,
			Page:            0,
			MinArtifactArea: 0.0003,
			Provider:        "ollama",
			Model:           "",
			TimeoutSeconds:  120,
		},
		Crawl: CrawlConfig{
			TimeoutSeconds: 30,
			DelayMS:        250,
			UserAgent:      "thesis-ner/0.1 (+https://github.com/lehigh-university-libraries/thesis-ner)",
			MaxPages:       0,
		},
	}
}

// Load reads configPath over the defaults. An empty path looks for
// DefaultFileName in the working directory and falls back to the defaults
// when it does not exist.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		if _, err := os.Stat(DefaultFileName); err != nil {
			return cfg, nil
		}
		configPath = DefaultFileName
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be corrected silently.
func (c *Config) Validate() error {
	if len(c.Labels) == 0 {
		return fmt.Errorf("labels must not be empty")
	}
	for _, l := range c.Labels {
		if !isKnownLabel(l) {
			return fmt.Errorf("unknown label %q (supported: %s)", l, strings.Join(training.KnownFields, ", "))
		}
	}
	if c.MinYear < 0 {
		return fmt.Errorf("min_year must not be negative")
	}
	if len(c.DocumentTypes) == 0 {
		return fmt.Errorf("document_types must not be empty")
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}

	switch c.OCR.Engine {
	case EngineTesseract, EnginePDFText:
	case EngineLLM:
		switch c.OCR.Provider {
		case "ollama", "openai", "gemini":
		default:
			return fmt.Errorf("unsupported ocr provider %q", c.OCR.Provider)
		}
	default:
		return fmt.Errorf("unsupported ocr engine %q", c.OCR.Engine)
	}
	if c.OCR.DPI <= 0 {
		return fmt.Errorf("ocr.dpi must be positive")
	}
	if c.OCR.Page < 0 {
		return fmt.Errorf("ocr.page must not be negative")
	}
	if c.OCR.MinArtifactArea < 0 || c.OCR.MinArtifactArea >= 1 {
		return fmt.Errorf("ocr.min_artifact_area must be in [0, 1)")
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must not be negative")
	}
	return nil
}

func isKnownLabel(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, f := range training.KnownFields {
		if f == label {
			return true
		}
	}
	return false
}
