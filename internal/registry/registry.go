// Package registry holds the fixed provider set and enforces the
// selection-count invariants: between one and three providers are selected
// at all times.
package registry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/promptfan/api/schemas"
)

const maxSelected = 3

// Registry maintains the provider set for the process lifetime. All methods
// are safe for concurrent use; returned Provider values are snapshots, so a
// caller must re-query to observe later mutations.
type Registry struct {
	mu        sync.Mutex
	providers []schemas.Provider
	logger    *zap.Logger
}

// New creates a Registry with all providers present and selected.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	ids := schemas.AllProviderIDs()
	providers := make([]schemas.Provider, 0, len(ids))
	for _, id := range ids {
		providers = append(providers, schemas.Provider{
			ID:         id,
			Name:       id.Name(),
			URL:        id.URL(),
			IsSelected: true,
		})
	}
	return &Registry{
		providers: providers,
		logger:    logger.Named("registry"),
	}
}

// List returns all providers in stable display order.
func (r *Registry) List() []schemas.Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schemas.Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Selected returns the currently selected providers, preserving the relative
// order of List.
func (r *Registry) Selected() []schemas.Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []schemas.Provider
	for _, p := range r.providers {
		if p.IsSelected {
			out = append(out, p)
		}
	}
	return out
}

// SetSelected updates a provider's selection flag and returns the updated
// snapshot. Deselecting the last selected provider or selecting past the
// maximum fails with a ValidationError and leaves state unchanged.
func (r *Registry) SetSelected(id schemas.ProviderID, selected bool) (schemas.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.selectedCountLocked()
	if !selected && count == 1 {
		return schemas.Provider{}, schemas.NewValidationError("at least one provider must be selected")
	}
	if selected && count >= maxSelected {
		return schemas.Provider{}, schemas.NewValidationError("maximum %d providers can be selected", maxSelected)
	}

	p := r.findLocked(id)
	if p == nil {
		return schemas.Provider{}, schemas.NewNotFoundError("provider %q not found", id)
	}

	p.IsSelected = selected
	r.logger.Info("Provider selection updated",
		zap.String("provider", string(id)),
		zap.Bool("selected", selected))
	return *p, nil
}

// SetAuthenticated records the result of an authentication probe for a
// provider and returns the updated snapshot.
func (r *Registry) SetAuthenticated(id schemas.ProviderID, authenticated bool) (schemas.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.findLocked(id)
	if p == nil {
		return schemas.Provider{}, schemas.NewNotFoundError("provider %q not found", id)
	}
	p.IsAuthenticated = authenticated
	return *p, nil
}

func (r *Registry) findLocked(id schemas.ProviderID) *schemas.Provider {
	for i := range r.providers {
		if r.providers[i].ID == id {
			return &r.providers[i]
		}
	}
	return nil
}

func (r *Registry) selectedCountLocked() int {
	n := 0
	for _, p := range r.providers {
		if p.IsSelected {
			n++
		}
	}
	return n
}
