package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every DSC_ variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, val, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(key, EnvPrefix+"_") {
			continue
		}
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() { os.Setenv(key, val) })
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		yaml        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5000, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, DefaultMaxUploadBytes, cfg.Server.MaxUploadBytes)
				assert.Equal(t, []string{"http://localhost:5000"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, time.Hour, cfg.Session.TTL)
				assert.Equal(t, "dsc_session", cfg.Session.CookieName)
				assert.Equal(t, "@every 1m", cfg.Session.SweepSchedule)
				assert.Equal(t, "rich", cfg.Report.Mode)
				assert.Equal(t, 10, cfg.Report.PreviewRows)
				assert.Equal(t, int64(42), cfg.Split.Seed)
				assert.Equal(t, 0.2, cfg.Split.DefaultTestSize)
				assert.Equal(t, "dscleaner", cfg.Telemetry.ServiceName)
			},
		},
		{
			name: "custom environment variables",
			env: map[string]string{
				"DSC_SERVER_PORT":              "9090",
				"DSC_SECURITY_ALLOWED_ORIGINS": "http://a.example,https://b.example",
				"DSC_LOGGING_FORMAT":           "text",
				"DSC_SESSION_TTL":              "15m",
				"DSC_REPORT_MODE":              "minimal",
				"DSC_SPLIT_SEED":               "7",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, []string{"http://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
				assert.Equal(t, "minimal", cfg.Report.Mode)
				assert.Equal(t, int64(7), cfg.Split.Seed)
			},
		},
		{
			name: "yaml file fills unset values",
			yaml: "server:\n  port: 7000\nreport:\n  mode: minimal\nsplit:\n  default_test_size: 0.3\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7000, cfg.Server.Port)
				assert.Equal(t, "minimal", cfg.Report.Mode)
				assert.Equal(t, 0.3, cfg.Split.DefaultTestSize)
			},
		},
		{
			name: "env wins over yaml",
			env:  map[string]string{"DSC_SERVER_PORT": "8181"},
			yaml: "server:\n  port: 7000\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8181, cfg.Server.Port)
			},
		},
		{
			name: "unknown log output falls back to console",
			env:  map[string]string{"DSC_LOGGING_OUTPUT": "syslog"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "console", cfg.Logging.Output)
			},
		},
		{name: "invalid port", env: map[string]string{"DSC_SERVER_PORT": "99999"}, wantErr: true},
		{name: "zero port", env: map[string]string{"DSC_SERVER_PORT": "0"}, wantErr: true},
		{name: "negative timeout", env: map[string]string{"DSC_SERVER_READ_TIMEOUT": "-5s"}, wantErr: true},
		{name: "empty allowed origins", env: map[string]string{"DSC_SECURITY_ALLOWED_ORIGINS": ""}, wantErr: true},
		{name: "unknown report mode", env: map[string]string{"DSC_REPORT_MODE": "fancy"}, wantErr: true},
		{name: "test size out of range", env: map[string]string{"DSC_SPLIT_DEFAULT_TEST_SIZE": "1.5"}, wantErr: true},
		{name: "zero split seed", env: map[string]string{"DSC_SPLIT_SEED": "0"}, wantErr: true},
		{name: "negative split seed", env: map[string]string{"DSC_SPLIT_SEED": "-3"}, validateCfg: func(t *testing.T, cfg *Config) {
			assert.Equal(t, int64(-3), cfg.Split.Seed)
		}},
		{name: "unparsable duration", env: map[string]string{"DSC_SESSION_TTL": "soon"}, wantErr: true},
		{name: "malformed yaml", yaml: "server: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeYAML(t, tt.yaml)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFrom_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestDefaultMatchesTags(t *testing.T) {
	clearEnv(t)
	loaded, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
}

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().validate())
}

func TestSplitFileName(t *testing.T) {
	assert.Equal(t, "train_dataset.csv", SplitFileName("train"))
	assert.Equal(t, "test_dataset.csv", SplitFileName("test"))
}
