package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/konflux-ci/compliance-scans/internal/githubapi"
	"github.com/konflux-ci/compliance-scans/internal/githubauth"
	"github.com/konflux-ci/compliance-scans/internal/jira"
	"github.com/konflux-ci/compliance-scans/internal/konflux"
	"github.com/konflux-ci/compliance-scans/internal/ratelimit"
	"github.com/konflux-ci/compliance-scans/internal/scan"
	"github.com/konflux-ci/compliance-scans/internal/tickets"
	"github.com/konflux-ci/compliance-scans/internal/utils"
)

const (
	applicationNameConstant                 = "konflux-compliance"
	applicationShortDescriptionConstant     = "Compliance scanning for Konflux component builds"
	applicationLongDescriptionConstant      = "konflux-compliance scans Konflux component build status through the GitHub and Kubernetes APIs and files JIRA tickets for compliance failures."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "KONFLUXCOMPLIANCE"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "konflux-compliance CLI executed"
	rootCommandDebugMessageConstant         = "konflux-compliance CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	toolsConfigurationKeyConstant           = "tools"
	scanConfigurationKeyConstant            = toolsConfigurationKeyConstant + ".scan"
	ticketsConfigurationKeyConstant         = toolsConfigurationKeyConstant + ".tickets"
	rateLimitConfigurationKeyConstant       = toolsConfigurationKeyConstant + ".rate_limit"
	jiraConfigurationKeyConstant            = toolsConfigurationKeyConstant + ".jira"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
	Squads map[string][]string            `mapstructure:"squads"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands grouped by tool family.
type ApplicationToolsConfiguration struct {
	Scan      scan.Configuration       `mapstructure:"scan"`
	Tickets   tickets.Configuration    `mapstructure:"tickets"`
	RateLimit ratelimit.Configuration  `mapstructure:"rate_limit"`
	GitHub    githubauth.Configuration `mapstructure:"github"`
	Jira      JiraConfiguration        `mapstructure:"jira"`
}

// JiraConfiguration stores shared JIRA connection settings.
type JiraConfiguration struct {
	BaseURL string `mapstructure:"base_url"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	embeddedConfiguration, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedConfiguration, embeddedConfigurationType)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	scanBuilder := scan.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() scan.Configuration {
			return application.configuration.Tools.Scan
		},
		SquadRosterProvider: func() *konflux.SquadRoster {
			return konflux.NewSquadRoster(application.configuration.Squads)
		},
		GitHubOptionsProvider: application.resolveGitHubOptions,
	}
	scanCommand, scanBuildError := scanBuilder.Build()
	if scanBuildError == nil {
		cobraCommand.AddCommand(scanCommand)
	}

	ticketsBuilder := tickets.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() tickets.Configuration {
			return application.configuration.Tools.Tickets
		},
		JiraBaseURLProvider: func() string {
			return application.configuration.Tools.Jira.BaseURL
		},
	}
	ticketsCommand, ticketsBuildError := ticketsBuilder.Build()
	if ticketsBuildError == nil {
		cobraCommand.AddCommand(ticketsCommand)
	}

	rateLimitBuilder := ratelimit.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() ratelimit.Configuration {
			return application.configuration.Tools.RateLimit
		},
		GitHubOptionsProvider: application.resolveGitHubOptions,
	}
	rateLimitCommand, rateLimitBuildError := rateLimitBuilder.Build()
	if rateLimitBuildError == nil {
		cobraCommand.AddCommand(rateLimitCommand)
	}

	appTokenBuilder := githubauth.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() githubauth.Configuration {
			return application.configuration.Tools.GitHub
		},
	}
	appTokenCommand, appTokenBuildError := appTokenBuilder.Build()
	if appTokenBuildError == nil {
		cobraCommand.AddCommand(appTokenCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	scanDefaults := scan.DefaultConfiguration()
	ticketsDefaults := tickets.DefaultConfiguration()
	rateLimitDefaults := ratelimit.DefaultConfiguration()

	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),

		scanConfigurationKeyConstant + ".output":                scanDefaults.Output,
		scanConfigurationKeyConstant + ".required_image_labels": scanDefaults.RequiredImageLabels,

		ticketsConfigurationKeyConstant + ".input":      ticketsDefaults.Input,
		ticketsConfigurationKeyConstant + ".project":    ticketsDefaults.Project,
		ticketsConfigurationKeyConstant + ".issue_type": ticketsDefaults.IssueType,

		rateLimitConfigurationKeyConstant + ".minimum_remaining": rateLimitDefaults.MinimumRemaining,

		jiraConfigurationKeyConstant + ".base_url": jira.DefaultBaseURL,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	createdLogger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = createdLogger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithLogSettings(updatedContext, utils.LogSettings{
			Level:  utils.LogLevel(application.configuration.Common.LogLevel),
			Format: utils.LogFormat(application.configuration.Common.LogFormat),
		})
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) resolveGitHubOptions() githubapi.ClientOptions {
	return githubapi.ClientOptions{
		APIBaseURL: strings.TrimSpace(application.configuration.Tools.GitHub.APIBaseURL),
	}
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	diagnosticFields := []zap.Field{zap.Strings(logFieldArgumentsConstant, arguments)}
	if configurationFilePath, available := application.commandContextAccessor.ConfigurationFilePath(command.Context()); available {
		diagnosticFields = append(diagnosticFields, zap.String(configurationFileFieldConstant, configurationFilePath))
	}
	if logSettings, available := application.commandContextAccessor.LogSettings(command.Context()); available {
		diagnosticFields = append(diagnosticFields,
			zap.String(configurationLogLevelFieldConstant, string(logSettings.Level)),
			zap.String(configurationLogFormatFieldConstant, string(logSettings.Format)),
		)
	}

	application.logger.Debug(rootCommandDebugMessageConstant, diagnosticFields...)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
