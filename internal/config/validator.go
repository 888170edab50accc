package config

import (
	"fmt"

	idxerrors "github.com/standardbeagle/pkgidx/internal/errors"
)

// Validator validates configuration and sets smart defaults.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Returns an error if validation fails.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if cfg.IndexDir == "" {
		return idxerrors.NewConfigError("index_dir", "", fmt.Errorf("index dir cannot be empty"))
	}

	if cfg.MaxRunBytes <= 0 {
		return idxerrors.NewConfigError("max_run_bytes", fmt.Sprint(cfg.MaxRunBytes), fmt.Errorf("must be positive"))
	}

	if cfg.ConsistentOpenTimeout <= 0 {
		return idxerrors.NewConfigError("consistent_open_timeout", cfg.ConsistentOpenTimeout.String(), fmt.Errorf("must be positive"))
	}

	if cfg.MaxAddedNumberPackages <= 0 {
		return idxerrors.NewConfigError("max_added_number_packages", fmt.Sprint(cfg.MaxAddedNumberPackages), fmt.Errorf("must be positive"))
	}

	v.setSmartDefaults(cfg)
	return nil
}

// setSmartDefaults fills in anything Load/Default left at the zero value.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.RunDir == "" {
		cfg.RunDir = cfg.TempDir() + "/runs"
	}
}

// ValidateConfig is a convenience function for quick validation.
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
