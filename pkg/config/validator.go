package config

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// validateCustom performs validation beyond struct tags.
func validateCustom(config *Config) error {
	for _, pattern := range config.Validate.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid discovery pattern %q", pattern)
		}
	}
	return nil
}
