package ratelimit

const defaultMinimumRemainingConstant = 100

// Configuration stores settings for the rate-limit command.
type Configuration struct {
	MinimumRemaining int `mapstructure:"minimum_remaining"`
}

// DefaultConfiguration supplies baseline values for the rate-limit command.
func DefaultConfiguration() Configuration {
	return Configuration{MinimumRemaining: defaultMinimumRemainingConstant}
}

// Sanitize replaces non-positive floors with the default.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	if sanitized.MinimumRemaining <= 0 {
		sanitized.MinimumRemaining = defaultMinimumRemainingConstant
	}
	return sanitized
}
