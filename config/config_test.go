package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(newDefaultViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "#89C997", cfg.Frame.BorderColor)
	assert.Equal(t, 20, cfg.Frame.BorderWidth)
	assert.Equal(t, 800, cfg.Frame.SquareMaxSize)
	assert.Equal(t, 400, cfg.Frame.CircleTargetSize)
	assert.Equal(t, 4, cfg.Frame.SupersampleFactor)
	assert.Equal(t, int64(5*1024*1024), cfg.Frame.MaxUploadBytes)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "frame-events", cfg.Kafka.Topic)
}

func TestParseConfigOverrides(t *testing.T) {
	v := newDefaultViper()
	v.Set("frame.max_upload_bytes", 512*1024)
	v.Set("server.idle_timeout", "2m")

	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, int64(512*1024), cfg.Frame.MaxUploadBytes)
	assert.Equal(t, 2*time.Minute, cfg.Server.IdleTimeout)
}

func TestParseConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{name: "zero upload ceiling", key: "frame.max_upload_bytes", val: 0},
		{name: "zero supersample factor", key: "frame.supersample_factor", val: 0},
		{name: "empty port", key: "server.port", val: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newDefaultViper()
			v.Set(tt.key, tt.val)

			_, err := ParseConfig(v)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FRAMER_FRAME_BORDER_WIDTH", "12")
	t.Setenv("FRAMER_KAFKA_TOPIC", "frames")

	v, err := LoadConfig()
	require.NoError(t, err)

	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Frame.BorderWidth)
	assert.Equal(t, "frames", cfg.Kafka.Topic)
}

func TestLoadConfigFromConfigDir(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()
	yaml := "frame:\n  border_width: 8\nkafka:\n  topic: framed\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("FRAMER_CONFIG_DIR", dir)

	v, err := LoadConfig()
	require.NoError(t, err)

	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Frame.BorderWidth)
	assert.Equal(t, "framed", cfg.Kafka.Topic)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("FRAMER_TEST_VALUE", "set")

	assert.Equal(t, "set", GetEnv("FRAMER_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("FRAMER_TEST_MISSING", "fallback"))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
