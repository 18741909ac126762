package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 7860, cfg.Server.Port)
	assert.Equal(t, "embedeverything", cfg.Embedding.Provider)
	assert.Equal(t, "all-MiniLM-L6-v2", cfg.Embedding.Model)
	assert.Equal(t, 256, cfg.Embedding.BatchSize)
	assert.Equal(t, "data", cfg.Cache.Dir)
	assert.Equal(t, 50, cfg.Cache.TopK)
	assert.Equal(t, "quick", cfg.Registry.Preset)
	assert.Equal(t, "data/patients", cfg.Patients.Dir)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("PORT", "9000")
	t.Setenv("CACHE_DIR", "/tmp/cache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/tmp/cache", cfg.Cache.Dir)
}

func TestSampleRoundTrips(t *testing.T) {
	out, err := Sample()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out, &doc))
	assert.Contains(t, doc, "server")
	assert.Contains(t, doc, "embedding")
	assert.Contains(t, doc, "cache")
}
