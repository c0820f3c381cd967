package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"loyaltyctl"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Zero(t, c.AdminID)
	assert.Equal(t, 10*time.Minute, c.TokenValidity)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectPanic bool
		expected    *Config
	}{
		{
			name: "all flags",
			args: []string{"-a", "10.0.0.1:9090", "-s", "k", "-u", "900", "-t", "5"},
			expected: &Config{ServerEndpointAddr: "10.0.0.1:9090", SecretKey: "k", AdminID: 900,
				RequestTimeout: 5 * time.Second},
		},
		{name: "bad admin id", args: []string{"-u", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArgs(t, tt.args...)
			cfg := &Config{}
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestParseJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctl.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"admin_id": 7, "request_timeout": "3s", "token_validity": 60000000000}`), 0o600))
	withArgs(t, "-c", path)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, int64(7), cfg.AdminID)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.TokenValidity)
	assert.Equal(t, "127.0.0.1:50051", cfg.ServerEndpointAddr)
}

func TestParseJson_BadFilePanics(t *testing.T) {
	withArgs(t, "-config", filepath.Join(t.TempDir(), "missing.json"))
	assert.Panics(t, func() { parseJson(&Config{}) })
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctl.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"admin_id": 7, "server_endpoint_addr": "file:1"}`), 0o600))
	withArgs(t, "-c", path, "-u", "8")

	cfg := LoadConfig()

	assert.Equal(t, int64(8), cfg.AdminID)
	assert.Equal(t, "file:1", cfg.ServerEndpointAddr)
}
