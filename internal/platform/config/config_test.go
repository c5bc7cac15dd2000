package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()

	t.Setenv("TG_API_ID", "12345")
	t.Setenv("TG_API_HASH", "abcdef")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, 12345, cfg.TGAPIID)
	assert.Equal(t, "abcdef", cfg.TGAPIHash)
	assert.Equal(t, "./osint.session", cfg.TGSessionPath)
	assert.Equal(t, 3, cfg.MaxConcurrency)
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval())
	assert.Equal(t, "http://localhost:3000/api", cfg.BackendURL)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaURL)
	assert.Equal(t, "gemma3:12b", cfg.LLMModel)
	assert.Equal(t, 120*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 30*time.Second, cfg.IngestTimeout)
	assert.Equal(t, 10*time.Second, cfg.SourcesTimeout)
	assert.Equal(t, 8080, cfg.HealthPort)
	assert.Empty(t, cfg.Channels)
}

func TestLoadRequiresTelegramCredentials(t *testing.T) {
	t.Setenv("TG_API_ID", "")
	t.Setenv("TG_API_HASH", "")

	_, err := Load()

	require.Error(t, err)
}

func TestLoadAppliesLowerBounds(t *testing.T) {
	setRequired(t)
	t.Setenv("TG_MAX_CONCURRENCY", "0")
	t.Setenv("TG_CHANNEL_REFRESH_INTERVAL_SEC", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.MaxConcurrency)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval())
}

func TestLoadCleansChannelList(t *testing.T) {
	setRequired(t)
	t.Setenv("TG_CHANNELS", " @Foo ,bar, ,handle:baz ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"Foo", "bar", "baz"}, cfg.Channels)
}

func TestCategoryOverrides(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"valid", `{"foo": "enemy-prop", "bar": "official"}`, map[string]string{"foo": "enemy-prop", "bar": "official"}},
		{"malformed", `{"foo": `, map[string]string{}},
		{"wrong_shape", `["foo"]`, map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{SourceCategoryMapJSON: tt.raw}

			assert.Equal(t, tt.want, cfg.CategoryOverrides())
		})
	}
}
