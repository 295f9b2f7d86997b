package tickets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/konflux-ci/compliance-scans/internal/jira"
	"github.com/konflux-ci/compliance-scans/internal/scan"
)

const (
	commandUseConstant              = "tickets"
	commandShortDescriptionConstant = "Create JIRA tickets for compliance findings"
	commandLongDescriptionConstant  = "tickets reads a findings report and files one JIRA issue per component and check, commenting on groups that already have an open ticket."

	inputFlagNameConstant          = "input"
	inputFlagDescriptionConstant   = "Findings report to read"
	projectFlagNameConstant        = "project"
	projectFlagDescriptionConstant = "JIRA project key"
	dryRunFlagNameConstant         = "dry-run"
	dryRunFlagDescriptionConstant  = "List would-be tickets without creating them"

	jiraTokenEnvironmentNameConstant     = "JIRA_TOKEN"
	jiraAPITokenEnvironmentNameConstant  = "JIRA_API_TOKEN"
	missingJiraTokenMessageConstant      = "no JIRA token found in JIRA_TOKEN or JIRA_API_TOKEN"
	missingInputMessageConstant          = "input path is required"
	missingProjectMessageConstant        = "project key is required"
	inputOpenErrorTemplateConstant       = "unable to open findings report %s: %w"
	ticketExecutionErrorTemplateConstant = "ticket creation failed: %w"
	ticketsProcessedMessageConstant      = "findings processed"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current tickets configuration.
type ConfigurationProvider func() Configuration

// JiraBaseURLProvider returns the JIRA instance base URL.
type JiraBaseURLProvider func() string

// CommandBuilder assembles the tickets cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	JiraBaseURLProvider   JiraBaseURLProvider
	Issues                IssueService
	Environment           map[string]string
}

// Build constructs the tickets command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(inputFlagNameConstant, "", inputFlagDescriptionConstant)
	command.Flags().String(projectFlagNameConstant, "", projectFlagDescriptionConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration, configurationError := builder.parseConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	logger := builder.resolveLogger()

	issueService, issuesError := builder.resolveIssues()
	if issuesError != nil {
		return issuesError
	}

	inputFile, openError := os.Open(configuration.Input)
	if openError != nil {
		return fmt.Errorf(inputOpenErrorTemplateConstant, configuration.Input, openError)
	}
	defer inputFile.Close()

	findings, readError := scan.ReadReport(inputFile)
	if readError != nil {
		return readError
	}

	ticketService, serviceError := NewService(logger, issueService)
	if serviceError != nil {
		return serviceError
	}

	summary, processError := ticketService.Process(command.Context(), findings, ServiceOptions{
		Project:   configuration.Project,
		IssueType: configuration.IssueType,
		DryRun:    configuration.DryRun,
	})
	if processError != nil {
		return fmt.Errorf(ticketExecutionErrorTemplateConstant, processError)
	}

	logger.Info(ticketsProcessedMessageConstant,
		zap.Int("findings", len(findings)),
		zap.Int("created", len(summary.Created)),
		zap.Int("suppressed", len(summary.Suppressed)),
		zap.Int("commented", len(summary.Commented)),
		zap.Int("planned", len(summary.Planned)),
	)
	return nil
}

func (builder *CommandBuilder) parseConfiguration(command *cobra.Command) (Configuration, error) {
	configuration := builder.resolveConfiguration()

	inputFlagValue, inputFlagError := command.Flags().GetString(inputFlagNameConstant)
	if inputFlagError != nil {
		return Configuration{}, inputFlagError
	}
	if len(inputFlagValue) > 0 {
		configuration.Input = inputFlagValue
	}

	projectFlagValue, projectFlagError := command.Flags().GetString(projectFlagNameConstant)
	if projectFlagError != nil {
		return Configuration{}, projectFlagError
	}
	if len(projectFlagValue) > 0 {
		configuration.Project = projectFlagValue
	}

	dryRunFlagValue, dryRunFlagError := command.Flags().GetBool(dryRunFlagNameConstant)
	if dryRunFlagError != nil {
		return Configuration{}, dryRunFlagError
	}
	if dryRunFlagValue {
		configuration.DryRun = true
	}

	configuration = configuration.Sanitize()
	if len(configuration.Input) == 0 {
		return Configuration{}, errors.New(missingInputMessageConstant)
	}
	if len(configuration.Project) == 0 {
		return Configuration{}, errors.New(missingProjectMessageConstant)
	}
	return configuration, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveIssues() (IssueService, error) {
	if builder.Issues != nil {
		return builder.Issues, nil
	}

	jiraToken := builder.resolveEnvironmentValue(jiraTokenEnvironmentNameConstant)
	if len(jiraToken) == 0 {
		jiraToken = builder.resolveEnvironmentValue(jiraAPITokenEnvironmentNameConstant)
	}
	if len(jiraToken) == 0 {
		return nil, errors.New(missingJiraTokenMessageConstant)
	}

	jiraBaseURL := jira.DefaultBaseURL
	if builder.JiraBaseURLProvider != nil {
		configuredBaseURL := strings.TrimSpace(builder.JiraBaseURLProvider())
		if len(configuredBaseURL) > 0 {
			jiraBaseURL = configuredBaseURL
		}
	}

	return jira.NewClient(jiraBaseURL, jiraToken)
}

func (builder *CommandBuilder) resolveEnvironmentValue(variableName string) string {
	if builder.Environment != nil {
		return strings.TrimSpace(builder.Environment[variableName])
	}
	return strings.TrimSpace(os.Getenv(variableName))
}
