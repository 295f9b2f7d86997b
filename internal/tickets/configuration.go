package tickets

import "strings"

const (
	defaultInputPathConstant = "compliance-report.csv"
	defaultProjectConstant   = "KFLUXBUGS"
	defaultIssueTypeConstant = "Bug"
)

// Configuration stores settings for the ticket creation command.
type Configuration struct {
	Input     string `mapstructure:"input"`
	Project   string `mapstructure:"project"`
	IssueType string `mapstructure:"issue_type"`
	DryRun    bool   `mapstructure:"dry_run"`
}

// DefaultConfiguration supplies baseline values for the tickets command.
func DefaultConfiguration() Configuration {
	return Configuration{
		Input:     defaultInputPathConstant,
		Project:   defaultProjectConstant,
		IssueType: defaultIssueTypeConstant,
	}
}

// Sanitize trims configured values.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Input = strings.TrimSpace(configuration.Input)
	sanitized.Project = strings.TrimSpace(configuration.Project)
	sanitized.IssueType = strings.TrimSpace(configuration.IssueType)
	return sanitized
}
