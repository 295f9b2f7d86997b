package scan

import "strings"

const (
	defaultOutputPathConstant = "compliance-report.csv"
)

var defaultRequiredImageLabels = []string{"name", "release", "version"}

// Configuration stores settings for the compliance scan command.
type Configuration struct {
	Namespaces          []string `mapstructure:"namespaces"`
	Squad               string   `mapstructure:"squad"`
	Output              string   `mapstructure:"output"`
	RequiredImageLabels []string `mapstructure:"required_image_labels"`
	Kubeconfig          string   `mapstructure:"kubeconfig"`
}

// DefaultConfiguration supplies baseline values for the scan command.
func DefaultConfiguration() Configuration {
	return Configuration{
		Output:              defaultOutputPathConstant,
		RequiredImageLabels: append([]string{}, defaultRequiredImageLabels...),
	}
}

// Sanitize trims configured values and removes empty entries.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Namespaces = sanitizeValues(configuration.Namespaces)
	sanitized.Squad = strings.TrimSpace(configuration.Squad)
	sanitized.Output = strings.TrimSpace(configuration.Output)
	sanitized.RequiredImageLabels = sanitizeValues(configuration.RequiredImageLabels)
	sanitized.Kubeconfig = strings.TrimSpace(configuration.Kubeconfig)
	return sanitized
}

func sanitizeValues(candidateValues []string) []string {
	sanitizedValues := make([]string, 0, len(candidateValues))
	for _, candidateValue := range candidateValues {
		trimmedValue := strings.TrimSpace(candidateValue)
		if len(trimmedValue) == 0 {
			continue
		}
		sanitizedValues = append(sanitizedValues, trimmedValue)
	}
	if len(sanitizedValues) == 0 {
		return nil
	}
	return sanitizedValues
}
