package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"), false)
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIHost, cfg.NGSAST.APIHost)
	assert.Equal(t, 3, cfg.BestFix.AnchorGap)
	assert.Equal(t, 3, cfg.BestFix.MaxSnippetLines)
	assert.Equal(t, []string{"check", "valid", "sanit"}, cfg.BestFix.CheckLabels)
	assert.Equal(t, 30*time.Second, cfg.HTTPClient.Timeout)
}

func TestLoadConfigExplicitMissingFileFails(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"), true)
	assert.Error(t, err)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	content := `
logger:
  level: DEBUG
bestfix:
  anchor_gap: 5
  max_snippet_lines: 7
  check_labels: ["check", "escape", "clean"]
ngsast:
  api_host: sast.example.com
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logger.Level)
	assert.Equal(t, 5, cfg.BestFix.AnchorGap)
	assert.Equal(t, 7, cfg.BestFix.MaxSnippetLines)
	assert.Equal(t, []string{"check", "escape", "clean"}, cfg.BestFix.CheckLabels)
	assert.Equal(t, "sast.example.com", cfg.NGSAST.APIHost)
}

func TestLoadConfigEnvHostWins(t *testing.T) {
	t.Setenv("SHIFTLEFT_API_HOST", "sast.internal.example.com")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"), false)
	require.NoError(t, err)
	assert.Equal(t, "sast.internal.example.com", cfg.NGSAST.APIHost)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "negative anchor gap",
			mutate:  func(c *Config) { c.BestFix.AnchorGap = -1 },
			wantErr: "anchor_gap",
		},
		{
			name:    "zero snippet lines",
			mutate:  func(c *Config) { c.BestFix.MaxSnippetLines = 0 },
			wantErr: "max_snippet_lines",
		},
		{
			name:    "zero threads",
			mutate:  func(c *Config) { c.BestFix.Threads = 0 },
			wantErr: "threads",
		},
		{
			name:    "excessive retry count",
			mutate:  func(c *Config) { c.HTTPClient.RetryCount = 50 },
			wantErr: "retry_count",
		},
		{
			name:    "blank check label",
			mutate:  func(c *Config) { c.BestFix.CheckLabels = []string{"check", "  "} },
			wantErr: "check_labels",
		},
		{
			name:    "invalid proxy port",
			mutate:  func(c *Config) { c.HTTPClient.Proxy = Proxy{Host: "proxy.local", Port: 120000} },
			wantErr: "port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
