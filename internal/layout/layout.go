// Package layout computes split-screen panel geometry for the selected
// providers. All coordinates are fractions of the window in [0,1].
package layout

import "github.com/xkilldash9x/promptfan/api/schemas"

// Type names the arrangement used for a given provider count.
type Type string

const (
	// Full gives a single provider the whole window.
	Full Type = "full"
	// VerticalSplit puts two providers side by side.
	VerticalSplit Type = "vertical_split"
	// Grid puts two providers on top and one across the bottom.
	Grid Type = "grid"
)

// PanelDimension is one provider's panel, as window fractions.
type PanelDimension struct {
	ProviderID schemas.ProviderID `json:"provider_id"`
	X          float64            `json:"x"`
	Y          float64            `json:"y"`
	Width      float64            `json:"width"`
	Height     float64            `json:"height"`
}

// Configuration is the complete geometry for the selected providers.
type Configuration struct {
	ProviderCount int              `json:"provider_count"`
	Type          Type             `json:"layout_type"`
	Panels        []PanelDimension `json:"panel_dimensions"`
}

// Calculate returns the panel geometry for the given providers, in order.
// Counts outside [1,3] fail with a ValidationError.
func Calculate(providers []schemas.ProviderID) (Configuration, error) {
	switch len(providers) {
	case 1:
		return Configuration{
			ProviderCount: 1,
			Type:          Full,
			Panels: []PanelDimension{
				{ProviderID: providers[0], X: 0, Y: 0, Width: 1, Height: 1},
			},
		}, nil
	case 2:
		return Configuration{
			ProviderCount: 2,
			Type:          VerticalSplit,
			Panels: []PanelDimension{
				{ProviderID: providers[0], X: 0, Y: 0, Width: 0.5, Height: 1},
				{ProviderID: providers[1], X: 0.5, Y: 0, Width: 0.5, Height: 1},
			},
		}, nil
	case 3:
		return Configuration{
			ProviderCount: 3,
			Type:          Grid,
			Panels: []PanelDimension{
				{ProviderID: providers[0], X: 0, Y: 0, Width: 0.5, Height: 0.5},
				{ProviderID: providers[1], X: 0.5, Y: 0, Width: 0.5, Height: 0.5},
				{ProviderID: providers[2], X: 0, Y: 0.5, Width: 1, Height: 0.5},
			},
		}, nil
	}
	return Configuration{}, schemas.NewValidationError(
		"layout requires between 1 and 3 providers, got %d", len(providers))
}
