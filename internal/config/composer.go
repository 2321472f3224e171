package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ComposerConfig holds skill generation limits.
type ComposerConfig struct {
	// RateLimitEnabled toggles the per-user generation rate limiter.
	RateLimitEnabled bool `env:"COMPOSER_RATE_LIMIT_ENABLED" yaml:"rate_limit_enabled" default:"true"`

	// GenerationsPerHour is the per-user budget shared by clarify and
	// generate requests.
	GenerationsPerHour int `env:"COMPOSER_GENERATIONS_PER_HOUR" yaml:"generations_per_hour" default:"10"`
}

// Validate checks the rate limit budget.
func (c ComposerConfig) Validate() error {
	var result error
	if c.RateLimitEnabled && c.GenerationsPerHour <= 0 {
		result = multierror.Append(result, fmt.Errorf("generations_per_hour must be greater than 0 when rate limiting is enabled"))
	}
	return result
}
