// Package selectors loads the read-only per-provider CSS selector
// configuration and validates it before anything downstream can see it.
// A default set ships embedded in the binary; a config file can override it.
package selectors

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/promptfan/api/schemas"
)

//go:embed defaults.json
var defaultsJSON []byte

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// configFile is the on-disk shape of the selector configuration.
type configFile struct {
	Version   string                                       `json:"version"`
	Providers map[schemas.ProviderID]schemas.SelectorConfig `json:"providers"`
}

// Source holds the validated selector configuration. Immutable after Load.
type Source struct {
	version   string
	providers map[schemas.ProviderID]schemas.SelectorConfig
}

var _ schemas.SelectorSource = (*Source)(nil)

// Load reads the selector configuration from path, or the embedded defaults
// when path is empty. The data is validated before it is returned; the core
// never sees an empty selector chain or a malformed version stamp.
func Load(path string, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("selectors")

	raw := defaultsJSON
	origin := "embedded defaults"
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read selector config %s: %w", path, err)
		}
		raw = data
		origin = path
	}

	var file configFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse selector config from %s: %w", origin, err)
	}

	src := &Source{
		version:   file.Version,
		providers: make(map[schemas.ProviderID]schemas.SelectorConfig, len(file.Providers)),
	}
	for id, cfg := range file.Providers {
		cfg.ProviderID = id
		src.providers[id] = cfg
	}

	if err := src.validate(); err != nil {
		return nil, err
	}

	log.Info("Selector configuration loaded",
		zap.String("origin", origin),
		zap.String("version", src.version),
		zap.Int("providers", len(src.providers)))
	return src, nil
}

// Version returns the config set's version stamp.
func (s *Source) Version() string {
	return s.version
}

// Get returns the selector configuration for a provider.
func (s *Source) Get(providerID schemas.ProviderID) (schemas.SelectorConfig, error) {
	cfg, ok := s.providers[providerID]
	if !ok {
		return schemas.SelectorConfig{}, schemas.NewNotFoundError(
			"selector configuration not found for provider %q", providerID)
	}
	return cfg, nil
}

func (s *Source) validate() error {
	if !validSemver(s.version) {
		return schemas.NewValidationError("invalid selector config version %q", s.version)
	}
	for id, cfg := range s.providers {
		if !id.Valid() {
			return schemas.NewValidationError("unknown provider %q in selector config", id)
		}
		if !validSemver(cfg.Version) {
			return schemas.NewValidationError("invalid version %q for provider %q", cfg.Version, id)
		}
		if len(cfg.InputSelectors) == 0 {
			return schemas.NewValidationError("input_selectors cannot be empty for provider %q", id)
		}
		if len(cfg.SubmitSelectors) == 0 {
			return schemas.NewValidationError("submit_selectors cannot be empty for provider %q", id)
		}
		if len(cfg.AuthCheckSelectors) == 0 {
			return schemas.NewValidationError("auth_check_selectors cannot be empty for provider %q", id)
		}
	}
	return nil
}

// validSemver checks for a three-part dotted numeric version stamp.
func validSemver(version string) bool {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 32); err != nil {
			return false
		}
	}
	return true
}
