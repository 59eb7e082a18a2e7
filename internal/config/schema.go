package config

// Config holds doculens configuration.
// Loaded from config.yaml in the working directory or ~/.doculens.
type Config struct {
	Server   ServerCfg   `mapstructure:"server" yaml:"server"`
	Pipeline PipelineCfg `mapstructure:"pipeline" yaml:"pipeline"`
	Naming   NamingCfg   `mapstructure:"naming" yaml:"naming"`
	Captions CaptionsCfg `mapstructure:"captions" yaml:"captions"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// MaxUploadMB caps the size of an uploaded PDF.
	MaxUploadMB int `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// PipelineCfg tunes the extraction pipeline.
type PipelineCfg struct {
	// HashSize is the perceptual hash grid size (NxN).
	HashSize int `mapstructure:"hash_size" yaml:"hash_size"`
	// SimilarityThreshold is the max Hamming distance for two images to
	// count as duplicates.
	SimilarityThreshold int `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	// MinOccurrences is the smallest duplicate group that gets filtered.
	MinOccurrences int `mapstructure:"min_occurrences" yaml:"min_occurrences"`
	// MinImageDimension drops images smaller than this on either side.
	MinImageDimension int `mapstructure:"min_image_dimension" yaml:"min_image_dimension"`
	// FlatMinPages and FlatPagesDivisor shape the page chunks used when
	// hierarchy detection is disabled: chunk size is
	// max(FlatMinPages, totalPages/FlatPagesDivisor).
	FlatMinPages     int `mapstructure:"flat_min_pages" yaml:"flat_min_pages"`
	FlatPagesDivisor int `mapstructure:"flat_pages_divisor" yaml:"flat_pages_divisor"`
	// Denylist replaces the built-in boilerplate line prefixes that are
	// never treated as headings (page markers, figure captions, form
	// labels). Empty keeps the built-in list.
	Denylist []string `mapstructure:"denylist" yaml:"denylist,omitempty"`
}

// NamingCfg selects how output images are named.
type NamingCfg struct {
	// Scheme is "nomenclature" (structured, prefix-based) or "opaque" (UUID).
	Scheme string `mapstructure:"scheme" yaml:"scheme"`
	// Prefix is the leading token of nomenclature names.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// CaptionsCfg configures the AI captioning provider.
type CaptionsCfg struct {
	// Provider is "mistral", "openai" or "" (captioning disabled).
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	// APIKey supports ${ENV_VAR} syntax.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	// BaseURL overrides the provider endpoint, e.g. for OpenAI-compatible
	// gateways.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// RateLimit is requests per second.
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	MaxRetries     int     `mapstructure:"max_retries" yaml:"max_retries"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:        "127.0.0.1",
			Port:        8080,
			MaxUploadMB: 50,
		},
		Pipeline: PipelineCfg{
			HashSize:            8,
			SimilarityThreshold: 6,
			MinOccurrences:      3,
			MinImageDimension:   50,
			FlatMinPages:        5,
			FlatPagesDivisor:    3,
		},
		Naming: NamingCfg{
			Scheme: "nomenclature",
			Prefix: "CRL",
		},
		Captions: CaptionsCfg{
			Provider:       "",
			Model:          "mistral-small-latest",
			APIKey:         "${MISTRAL_API_KEY}",
			RateLimit:      2.0,
			MaxRetries:     3,
			TimeoutSeconds: 30,
		},
	}
}
