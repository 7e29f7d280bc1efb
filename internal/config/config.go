package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// DefaultAPIHost is the NG SAST API host used when neither the config file
// nor SHIFTLEFT_API_HOST provide one.
const DefaultAPIHost = "app.shiftleft.io"

// Config is the root of the bestfix YAML configuration.
type Config struct {
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	NGSAST     NGSAST     `yaml:"ngsast"`
	BestFix    BestFix    `yaml:"bestfix"`
	Artifacts  Artifacts  `yaml:"artifacts"`
}

type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     bool   `yaml:"disable_time"`
	JSONFormat      bool   `yaml:"json_format"`
	IncludeLocation bool   `yaml:"include_location"`
}

type HTTPClient struct {
	Debug            bool          `yaml:"debug"`
	RetryCount       int           `yaml:"retry_count"`
	RetryWaitTime    time.Duration `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration `yaml:"retry_max_wait_time"`
	Timeout          time.Duration `yaml:"timeout"`
	Proxy            Proxy         `yaml:"proxy"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// NGSAST holds NG SAST API settings. The access token is only ever read from
// the SHIFTLEFT_ACCESS_TOKEN environment variable, never from the file.
type NGSAST struct {
	APIHost string   `yaml:"api_host"`
	PerPage int      `yaml:"per_page"`
	Ratings []string `yaml:"ratings"`
}

// BestFix holds the tunables of the reasoning engine.
type BestFix struct {
	// AnchorGap is the line distance between source and sink above which a
	// second "After line" fix anchor is emitted for same-file traces.
	AnchorGap int `yaml:"anchor_gap"`
	// MaxSnippetLines bounds the code context window around the sink line.
	MaxSnippetLines int `yaml:"max_snippet_lines"`
	// CheckLabels are the lowercase substrings that mark a method as a
	// validation/sanitization routine worth surfacing.
	CheckLabels []string `yaml:"check_labels"`
	// Threads is the number of findings processed concurrently per app.
	Threads int `yaml:"threads"`
}

// Artifacts configures optional report upload to S3.
type Artifacts struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
}

// NewConfig returns a configuration populated with defaults only.
func NewConfig() *Config {
	return &Config{
		Logger: Logger{
			Level:       "INFO",
			DisableTime: true,
		},
		HTTPClient: HTTPClient{
			RetryCount:       5,
			RetryWaitTime:    1 * time.Second,
			RetryMaxWaitTime: 5 * time.Second,
			Timeout:          30 * time.Second,
		},
		NGSAST: NGSAST{
			APIHost: DefaultAPIHost,
			PerPage: 249,
			Ratings: []string{"critical", "high"},
		},
		BestFix: BestFix{
			AnchorGap:       3,
			MaxSnippetLines: 3,
			CheckLabels:     []string{"check", "valid", "sanit"},
			Threads:         1,
		},
	}
}

// LoadConfig reads the YAML file at configPath on top of the defaults.
// A missing file is not an error unless explicit is true: the tool is
// expected to run with defaults plus environment variables.
func LoadConfig(configPath string, explicit bool) (*Config, error) {
	cfg := NewConfig()

	if err := validateConfigPath(configPath); err != nil {
		if os.IsNotExist(err) && !explicit {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config file %q: %w", configPath, err)
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %q: %w", configPath, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %q: %w", configPath, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variables that take precedence over
// file values.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("SHIFTLEFT_API_HOST"); host != "" {
		cfg.NGSAST.APIHost = host
	}
	if cfg.NGSAST.APIHost == "" {
		cfg.NGSAST.APIHost = DefaultAPIHost
	}
}

// AccessToken returns the NG SAST personal access token from the environment.
func AccessToken() string {
	return os.Getenv("SHIFTLEFT_ACCESS_TOKEN")
}

// DefaultApp returns the app name preconfigured via the environment, if any.
func DefaultApp() string {
	return os.Getenv("SHIFTLEFT_APP")
}

// validateConfigPath checks that path points at a regular file.
func validateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}
