package selectors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/promptfan/api/schemas"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	src, err := Load("", zap.NewNop())
	require.NoError(t, err)

	assert.NotEmpty(t, src.Version())
	for _, id := range schemas.AllProviderIDs() {
		cfg, err := src.Get(id)
		require.NoError(t, err, "defaults must cover %s", id)
		assert.Equal(t, id, cfg.ProviderID)
		assert.NotEmpty(t, cfg.InputSelectors)
		assert.NotEmpty(t, cfg.SubmitSelectors)
		assert.NotEmpty(t, cfg.AuthCheckSelectors)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"version": "2.0.0",
		"providers": {
			"chatgpt": {
				"config_version": "2.0.0",
				"input_selectors": ["#custom-input"],
				"submit_selectors": ["#custom-send"],
				"auth_check_selectors": ["#login"]
			}
		}
	}`)

	src, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", src.Version())

	cfg, err := src.Get(schemas.ProviderChatGPT)
	require.NoError(t, err)
	assert.Equal(t, []string{"#custom-input"}, cfg.InputSelectors)

	// A file override replaces the whole set; absent providers are absent.
	_, err = src.Get(schemas.ProviderGemini)
	require.Error(t, err)
	assert.True(t, schemas.IsNotFoundError(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())
	require.Error(t, err)
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"version": "1.0.0", "providers": {`)
	_, err := Load(path, zap.NewNop())
	require.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name:    "bad set version",
			content: `{"version": "1.2", "providers": {}}`,
		},
		{
			name:    "non numeric version part",
			content: `{"version": "1.2.x", "providers": {}}`,
		},
		{
			name:    "unknown provider id",
			content: `{"version": "1.0.0", "providers": {"copilot": {
				"config_version": "1.0.0",
				"input_selectors": ["#a"], "submit_selectors": ["#b"], "auth_check_selectors": ["#c"]
			}}}`,
		},
		{
			name:    "bad provider version",
			content: `{"version": "1.0.0", "providers": {"chatgpt": {
				"config_version": "latest",
				"input_selectors": ["#a"], "submit_selectors": ["#b"], "auth_check_selectors": ["#c"]
			}}}`,
		},
		{
			name:    "empty input selectors",
			content: `{"version": "1.0.0", "providers": {"chatgpt": {
				"config_version": "1.0.0",
				"input_selectors": [], "submit_selectors": ["#b"], "auth_check_selectors": ["#c"]
			}}}`,
		},
		{
			name:    "empty submit selectors",
			content: `{"version": "1.0.0", "providers": {"chatgpt": {
				"config_version": "1.0.0",
				"input_selectors": ["#a"], "submit_selectors": [], "auth_check_selectors": ["#c"]
			}}}`,
		},
		{
			name:    "empty auth check selectors",
			content: `{"version": "1.0.0", "providers": {"chatgpt": {
				"config_version": "1.0.0",
				"input_selectors": ["#a"], "submit_selectors": ["#b"], "auth_check_selectors": []
			}}}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, err := Load(path, zap.NewNop())
			require.Error(t, err)
			assert.True(t, schemas.IsValidationError(err))
		})
	}
}

func TestValidSemver(t *testing.T) {
	assert.True(t, validSemver("1.0.0"))
	assert.True(t, validSemver("0.12.345"))
	assert.False(t, validSemver("1.0"))
	assert.False(t, validSemver("1.0.0.0"))
	assert.False(t, validSemver("v1.0.0"))
	assert.False(t, validSemver("1.0.-1"))
	assert.False(t, validSemver(""))
}

func TestGetUnknownProvider(t *testing.T) {
	src, err := Load("", zap.NewNop())
	require.NoError(t, err)

	_, err = src.Get(schemas.ProviderID("copilot"))
	require.Error(t, err)
	assert.True(t, schemas.IsNotFoundError(err))
}
