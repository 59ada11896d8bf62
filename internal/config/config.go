package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"geosismica/pkg/validation"
)

// DefaultEndpoint is the n8n webhook that performs the seismic line analysis.
const DefaultEndpoint = "https://yandri0205.app.n8n.cloud/webhook/seismic-upload"

type Config struct {
	Host              string        `mapstructure:"host"`
	Port              string        `mapstructure:"port"`
	AnalysisEndpoint  string        `mapstructure:"analysis_endpoint"`
	AnalysisTimeout   time.Duration `mapstructure:"analysis_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	MaxUploadSize     int64         `mapstructure:"max_upload_size"`
	AssetsDir         string        `mapstructure:"assets_dir"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	EmptyResultNotice bool          `mapstructure:"empty_result_notice"`
	LogLevel          string        `mapstructure:"log_level"`
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// MaxRequestBodySize leaves room for multipart framing around the upload.
func (c *Config) MaxRequestBodySize() int64 {
	return c.MaxUploadSize + 1<<20
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "8080")
	v.SetDefault("analysis_endpoint", DefaultEndpoint)
	v.SetDefault("analysis_timeout", 120*time.Second)
	// Must outlive the analysis call, which blocks the request.
	v.SetDefault("request_timeout", 150*time.Second)
	v.SetDefault("max_upload_size", 10*1024*1024) // 10MB
	v.SetDefault("assets_dir", "assets")
	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("empty_result_notice", false)
	v.SetDefault("log_level", "info")
}

// LoadFromEnv reads configuration from environment variables (HOST, PORT,
// ANALYSIS_ENDPOINT, ...) over the defaults.
func LoadFromEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if err := validation.NewURLValidator().ValidateEndpointURL(c.AnalysisEndpoint); err != nil {
		return fmt.Errorf("invalid ANALYSIS_ENDPOINT %q: %w", c.AnalysisEndpoint, err)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0 (got %d)", c.MaxUploadSize)
	}
	if c.AnalysisTimeout <= 0 || c.RequestTimeout <= 0 || c.SessionTTL <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got analysis=%s, request=%s, session=%s)",
			c.AnalysisTimeout, c.RequestTimeout, c.SessionTTL)
	}
	return nil
}
