package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading pipeline settings.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the settings from path. A missing file yields the defaults.
	Load(path string) (domain.Settings, error)
}
