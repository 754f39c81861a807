package config

import "time"

// Config holds collate configuration.
type Config struct {
	Server    ServerCfg    `mapstructure:"server" yaml:"server"`
	Sidecar   SidecarCfg   `mapstructure:"sidecar" yaml:"sidecar"`
	Pipeline  PipelineCfg  `mapstructure:"pipeline" yaml:"pipeline"`
	Tesseract TesseractCfg `mapstructure:"tesseract" yaml:"tesseract"`
	Vision    VisionCfg    `mapstructure:"vision" yaml:"vision"`
	Sources   SourcesCfg   `mapstructure:"sources" yaml:"sources"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// SidecarCfg configures the extractor sidecar that handles PDF text,
// rasterization, and table/shape detection.
type SidecarCfg struct {
	URL string `mapstructure:"url" yaml:"url"`
	// StartupWaitSeconds bounds how long serve waits for the sidecar
	// to report healthy before giving up.
	StartupWaitSeconds int `mapstructure:"startup_wait_seconds" yaml:"startup_wait_seconds"`
}

// PipelineCfg configures reconciliation behavior.
type PipelineCfg struct {
	// SourceTimeoutSeconds bounds a single extraction source per request.
	SourceTimeoutSeconds int `mapstructure:"source_timeout_seconds" yaml:"source_timeout_seconds"`
	// RasterScale multiplies PDF page dimensions when rendering for OCR.
	RasterScale float64 `mapstructure:"raster_scale" yaml:"raster_scale"`
	// OCROrder fixes the run order of enabled OCR engines, which in turn
	// fixes the deduplicator's input order.
	OCROrder []string `mapstructure:"ocr_order" yaml:"ocr_order"`
}

// TesseractCfg configures the in-process tesseract OCR source.
type TesseractCfg struct {
	Languages []string `mapstructure:"languages" yaml:"languages"`
}

// VisionCfg configures the optional vision-model OCR source.
type VisionCfg struct {
	Model string `mapstructure:"model" yaml:"model"`
	// APIKey supports ${ENV_VAR} syntax.
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// SourcesCfg toggles individual extraction sources.
type SourcesCfg struct {
	Native    bool `mapstructure:"native" yaml:"native"`
	Tesseract bool `mapstructure:"tesseract" yaml:"tesseract"`
	Vision    bool `mapstructure:"vision" yaml:"vision"`
	Tables    bool `mapstructure:"tables" yaml:"tables"`
	Shapes    bool `mapstructure:"shapes" yaml:"shapes"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Sidecar: SidecarCfg{
			URL:                "http://localhost:8001",
			StartupWaitSeconds: 60,
		},
		Pipeline: PipelineCfg{
			SourceTimeoutSeconds: 120,
			RasterScale:          2,
			OCROrder:             []string{"tesseract", "vision"},
		},
		Tesseract: TesseractCfg{
			Languages: []string{"eng"},
		},
		Vision: VisionCfg{
			Model:  "gpt-4o-mini",
			APIKey: "${OPENAI_API_KEY}",
		},
		Sources: SourcesCfg{
			Native:    true,
			Tesseract: true,
			Vision:    false,
			Tables:    true,
			Shapes:    true,
		},
	}
}

// SourceTimeout returns the per-source timeout as a duration.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Pipeline.SourceTimeoutSeconds) * time.Second
}

// ResolveVisionAPIKey returns the vision API key with ${ENV_VAR}
// references expanded.
func (c *Config) ResolveVisionAPIKey() string {
	return ResolveEnvVars(c.Vision.APIKey)
}
