package githubauth

import "strings"

// Configuration stores GitHub connection and App settings shared across commands.
type Configuration struct {
	APIBaseURL     string `mapstructure:"api_base_url"`
	AppID          int64  `mapstructure:"app_id"`
	InstallationID int64  `mapstructure:"installation_id"`
	PrivateKeyPath string `mapstructure:"private_key_path"`
}

// DefaultConfiguration supplies baseline values for GitHub access.
func DefaultConfiguration() Configuration {
	return Configuration{}
}

// Sanitize trims configured values.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.APIBaseURL = strings.TrimSpace(configuration.APIBaseURL)
	sanitized.PrivateKeyPath = strings.TrimSpace(configuration.PrivateKeyPath)
	return sanitized
}
