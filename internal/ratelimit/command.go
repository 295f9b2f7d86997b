package ratelimit

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/konflux-ci/compliance-scans/internal/githubapi"
	"github.com/konflux-ci/compliance-scans/internal/githubauth"
)

const (
	commandUseConstant              = "rate-limit"
	commandShortDescriptionConstant = "Check the remaining GitHub API rate budget"
	commandLongDescriptionConstant  = "rate-limit reports GitHub API budgets and fails when the core quota is below the configured minimum."

	minimumFlagNameConstant        = "minimum"
	minimumFlagDescriptionConstant = "Fail when fewer core requests remain"
	jsonFlagNameConstant           = "json"
	jsonFlagDescriptionConstant    = "Print the report as JSON"

	missingGithubTokenMessageConstant = "no GitHub token found in GH_TOKEN, GITHUB_TOKEN, or GITHUB_API_TOKEN"
	reportEncodeErrorTemplateConstant = "unable to encode rate limit report: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current rate-limit configuration.
type ConfigurationProvider func() Configuration

// GitHubOptionsProvider returns the GitHub client options shared across commands.
type GitHubOptionsProvider func() githubapi.ClientOptions

// CommandBuilder assembles the rate-limit cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	GitHubOptionsProvider GitHubOptionsProvider
	Fetcher               LimitsFetcher
	Environment           map[string]string
}

// Build constructs the rate-limit command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().Int(minimumFlagNameConstant, 0, minimumFlagDescriptionConstant)
	command.Flags().Bool(jsonFlagNameConstant, false, jsonFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration()

	minimumFlagValue, minimumFlagError := command.Flags().GetInt(minimumFlagNameConstant)
	if minimumFlagError != nil {
		return minimumFlagError
	}
	if minimumFlagValue > 0 {
		configuration.MinimumRemaining = minimumFlagValue
	}
	configuration = configuration.Sanitize()

	jsonFlagValue, jsonFlagError := command.Flags().GetBool(jsonFlagNameConstant)
	if jsonFlagError != nil {
		return jsonFlagError
	}

	logger := builder.resolveLogger()

	limitsFetcher, fetcherError := builder.resolveFetcher()
	if fetcherError != nil {
		return fetcherError
	}

	checkService, serviceError := NewService(logger, limitsFetcher)
	if serviceError != nil {
		return serviceError
	}

	report, checkError := checkService.Check(command.Context(), configuration.MinimumRemaining)

	if jsonFlagValue && len(report.Resources) > 0 {
		reportEncoder := json.NewEncoder(command.OutOrStdout())
		reportEncoder.SetIndent("", "  ")
		if encodeError := reportEncoder.Encode(report); encodeError != nil {
			return fmt.Errorf(reportEncodeErrorTemplateConstant, encodeError)
		}
	}

	return checkError
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

func (builder *CommandBuilder) resolveFetcher() (LimitsFetcher, error) {
	if builder.Fetcher != nil {
		return builder.Fetcher, nil
	}

	githubToken, tokenFound := githubauth.ResolveToken(builder.Environment)
	if !tokenFound {
		return nil, errors.New(missingGithubTokenMessageConstant)
	}

	clientOptions := githubapi.ClientOptions{}
	if builder.GitHubOptionsProvider != nil {
		clientOptions = builder.GitHubOptionsProvider()
	}

	githubClient, clientError := githubapi.NewClient(githubToken, clientOptions)
	if clientError != nil {
		return nil, clientError
	}
	return ClientLimitsFetcher{Client: githubClient}, nil
}
