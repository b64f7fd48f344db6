package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/promptfan/api/schemas"
)

func TestCalculateSingleProvider(t *testing.T) {
	cfg, err := Calculate([]schemas.ProviderID{schemas.ProviderChatGPT})
	require.NoError(t, err)

	assert.Equal(t, Full, cfg.Type)
	assert.Equal(t, 1, cfg.ProviderCount)
	require.Len(t, cfg.Panels, 1)
	assert.Equal(t, PanelDimension{
		ProviderID: schemas.ProviderChatGPT,
		X:          0, Y: 0, Width: 1, Height: 1,
	}, cfg.Panels[0])
}

func TestCalculateTwoProviders(t *testing.T) {
	cfg, err := Calculate([]schemas.ProviderID{schemas.ProviderChatGPT, schemas.ProviderClaude})
	require.NoError(t, err)

	assert.Equal(t, VerticalSplit, cfg.Type)
	require.Len(t, cfg.Panels, 2)

	left, right := cfg.Panels[0], cfg.Panels[1]
	assert.Equal(t, schemas.ProviderChatGPT, left.ProviderID, "panel order follows input order")
	assert.Equal(t, schemas.ProviderClaude, right.ProviderID)
	assert.Equal(t, 0.0, left.X)
	assert.Equal(t, 0.5, right.X)
	for _, p := range cfg.Panels {
		assert.Equal(t, 0.5, p.Width)
		assert.Equal(t, 1.0, p.Height)
	}
}

func TestCalculateThreeProviders(t *testing.T) {
	cfg, err := Calculate([]schemas.ProviderID{
		schemas.ProviderChatGPT, schemas.ProviderGemini, schemas.ProviderClaude,
	})
	require.NoError(t, err)

	assert.Equal(t, Grid, cfg.Type)
	require.Len(t, cfg.Panels, 3)

	// Two quadrants on top, the third provider across the full bottom half.
	assert.Equal(t, PanelDimension{ProviderID: schemas.ProviderChatGPT, X: 0, Y: 0, Width: 0.5, Height: 0.5}, cfg.Panels[0])
	assert.Equal(t, PanelDimension{ProviderID: schemas.ProviderGemini, X: 0.5, Y: 0, Width: 0.5, Height: 0.5}, cfg.Panels[1])
	assert.Equal(t, PanelDimension{ProviderID: schemas.ProviderClaude, X: 0, Y: 0.5, Width: 1, Height: 0.5}, cfg.Panels[2])
}

func TestCalculateRejectsOutOfRangeCounts(t *testing.T) {
	_, err := Calculate(nil)
	require.Error(t, err)
	assert.True(t, schemas.IsValidationError(err))

	_, err = Calculate([]schemas.ProviderID{
		schemas.ProviderChatGPT, schemas.ProviderGemini, schemas.ProviderClaude, schemas.ProviderChatGPT,
	})
	require.Error(t, err)
	assert.True(t, schemas.IsValidationError(err))
}

func TestPanelsTileTheWindow(t *testing.T) {
	// For every legal count, panel areas must sum to the full window.
	ids := []schemas.ProviderID{schemas.ProviderChatGPT, schemas.ProviderGemini, schemas.ProviderClaude}
	for n := 1; n <= 3; n++ {
		cfg, err := Calculate(ids[:n])
		require.NoError(t, err)

		var area float64
		for _, p := range cfg.Panels {
			area += p.Width * p.Height
			assert.GreaterOrEqual(t, p.X, 0.0)
			assert.GreaterOrEqual(t, p.Y, 0.0)
			assert.LessOrEqual(t, p.X+p.Width, 1.0)
			assert.LessOrEqual(t, p.Y+p.Height, 1.0)
		}
		assert.InDelta(t, 1.0, area, 1e-9, "count %d", n)
	}
}
