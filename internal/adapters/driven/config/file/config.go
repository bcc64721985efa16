// Package file loads the archivist configuration from a TOML file.
//
// Configuration lives at ~/.archivist/config.toml by default. A missing
// file yields the stock defaults; a present file overrides only the
// sections it names. API keys are never stored here: they come from the
// environment.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/services"
)

// Config is the full on-disk configuration.
type Config struct {
	Paths      PathsConfig      `toml:"paths"`
	Watch      WatchConfig      `toml:"watch"`
	Extraction ExtractionConfig `toml:"extraction"`
	Routing    RoutingConfig    `toml:"routing"`
	LLM        LLMConfig        `toml:"llm"`
	OCR        OCRConfig        `toml:"ocr"`
}

// PathsConfig names the directories the pipeline works across.
type PathsConfig struct {
	// Inbox is the directory scanned and watched for new documents.
	Inbox string `toml:"inbox"`

	// Archive is the root all destination directories resolve under.
	Archive string `toml:"archive"`

	// Pending is where pending-plan artifacts are written.
	Pending string `toml:"pending"`

	// Data is the SQLite data directory. Empty means the default.
	Data string `toml:"data"`
}

// WatchConfig tunes the directory watcher.
type WatchConfig struct {
	// Extensions lists the file extensions picked up, dot included.
	Extensions []string `toml:"extensions"`

	// PollIntervalMS is the stability poll interval in milliseconds.
	PollIntervalMS int `toml:"poll_interval_ms"`

	// StableReadings is how many identical size readings mean settled.
	StableReadings int `toml:"stable_readings"`

	// StableTimeoutS caps the stability wait in seconds.
	StableTimeoutS int `toml:"stable_timeout_s"`
}

// ExtractionConfig tunes the extraction cascade.
type ExtractionConfig struct {
	OCREnabled        bool     `toml:"ocr_enabled"`
	OCRMaxPages       int      `toml:"ocr_max_pages"`
	VisionEnabled     bool     `toml:"vision_enabled"`
	VisionMaxPages    int      `toml:"vision_max_pages"`
	ImportantKeywords []string `toml:"important_keywords"`

	// ImportantMinSizeKB / ImportantMaxSizeMB bound the byte range for
	// documents worth the vision path.
	ImportantMinSizeKB int `toml:"important_min_size_kb"`
	ImportantMaxSizeMB int `toml:"important_max_size_mb"`
	ImportantMaxPages  int `toml:"important_max_pages"`
}

// RoutingConfig tunes the routing engine.
type RoutingConfig struct {
	// Labels overrides the localised directory name per category.
	Labels map[string]string `toml:"labels"`

	// Templates overrides the destination template per category.
	// Supported placeholders: {year}, {month}, {vendor}.
	Templates map[string]string `toml:"templates"`

	// DatePartitioned lists the categories routed by date.
	DatePartitioned []string `toml:"date_partitioned"`
}

// LLMConfig names the classifier endpoint. The API key comes from the
// ARCHIVIST_OPENAI_API_KEY or OPENAI_API_KEY environment variable.
type LLMConfig struct {
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	VisionModel       string  `toml:"vision_model"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int     `toml:"burst_size"`
}

// OCRConfig names the OCR service endpoint. The API key comes from the
// ARCHIVIST_OCR_API_KEY environment variable.
type OCRConfig struct {
	Endpoint string `toml:"endpoint"`
	TimeoutS int    `toml:"timeout_s"`
}

// Default returns the stock configuration.
func Default() Config {
	cascade := services.DefaultCascadeConfig()
	return Config{
		Watch: WatchConfig{
			Extensions: []string{
				".pdf", ".docx", ".doc", ".pptx", ".ppt", ".xlsx", ".xls",
				".txt", ".md", ".png", ".jpg", ".jpeg", ".webp", ".gif",
			},
			PollIntervalMS: 500,
			StableReadings: 3,
			StableTimeoutS: 10,
		},
		Extraction: ExtractionConfig{
			OCREnabled:         cascade.OCREnabled,
			OCRMaxPages:        cascade.OCRMaxPages,
			VisionEnabled:      cascade.VisionEnabled,
			VisionMaxPages:     cascade.VisionMaxPages,
			ImportantKeywords:  cascade.ImportantKeywords,
			ImportantMinSizeKB: int(cascade.ImportantMinSize >> 10),
			ImportantMaxSizeMB: int(cascade.ImportantMaxSize >> 20),
			ImportantMaxPages:  cascade.ImportantMaxPages,
		},
		Routing: RoutingConfig{
			DatePartitioned: []string{string(domain.CategoryInvoice)},
		},
		LLM: LLMConfig{
			Model:             "gpt-4o-mini",
			VisionModel:       "gpt-4o",
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		OCR: OCRConfig{
			TimeoutS: 300,
		},
	}
}

// DefaultPath returns ~/.archivist/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".archivist", "config.toml"), nil
}

// Load reads the configuration at path, layering it over the defaults.
// A missing file is not an error; the defaults are returned as-is.
// If path is empty, DefaultPath is used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path with restricted permissions,
// creating the parent directory if needed.
func Save(cfg Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// CascadeConfig converts the extraction section for the cascade service.
func (c Config) CascadeConfig() services.CascadeConfig {
	cfg := services.DefaultCascadeConfig()
	cfg.OCREnabled = c.Extraction.OCREnabled
	cfg.OCRMaxPages = c.Extraction.OCRMaxPages
	cfg.VisionEnabled = c.Extraction.VisionEnabled
	cfg.VisionMaxPages = c.Extraction.VisionMaxPages
	if len(c.Extraction.ImportantKeywords) > 0 {
		cfg.ImportantKeywords = c.Extraction.ImportantKeywords
	}
	cfg.ImportantMinSize = int64(c.Extraction.ImportantMinSizeKB) << 10
	cfg.ImportantMaxSize = int64(c.Extraction.ImportantMaxSizeMB) << 20
	cfg.ImportantMaxPages = c.Extraction.ImportantMaxPages
	return cfg
}

// RouterConfig converts the routing section for the routing engine.
func (c Config) RouterConfig() services.RouterConfig {
	cfg := services.DefaultRouterConfig()
	for cat, label := range c.Routing.Labels {
		cfg.Labels[domain.Category(cat)] = label
	}
	for cat, tmpl := range c.Routing.Templates {
		cfg.Templates[domain.Category(cat)] = tmpl
	}
	if len(c.Routing.DatePartitioned) > 0 {
		cfg.DatePartitioned = cfg.DatePartitioned[:0]
		for _, cat := range c.Routing.DatePartitioned {
			cfg.DatePartitioned = append(cfg.DatePartitioned, domain.Category(cat))
		}
	}
	return cfg
}
