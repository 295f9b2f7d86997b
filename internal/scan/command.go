package scan

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/konflux-ci/compliance-scans/internal/execshell"
	"github.com/konflux-ci/compliance-scans/internal/githubapi"
	"github.com/konflux-ci/compliance-scans/internal/githubauth"
	"github.com/konflux-ci/compliance-scans/internal/konflux"
)

const (
	commandUseConstant              = "scan"
	commandShortDescriptionConstant = "Scan Konflux components for compliance failures"
	commandLongDescriptionConstant  = "scan enumerates Konflux components, evaluates compliance checks, and writes a findings report."

	namespaceFlagNameConstant         = "namespace"
	namespaceFlagDescriptionConstant  = "Konflux namespace to scan (repeatable)"
	squadFlagNameConstant             = "squad"
	squadFlagDescriptionConstant      = "Restrict the scan to one squad's components"
	outputFlagNameConstant            = "output"
	outputFlagDescriptionConstant     = "Findings report destination path"
	kubeconfigFlagNameConstant        = "kubeconfig"
	kubeconfigFlagDescriptionConstant = "Path to the kubeconfig used to reach the cluster"

	missingNamespacesMessageConstant      = "at least one namespace is required"
	missingOutputMessageConstant          = "output path is required"
	missingTokenWarningMessageConstant    = "no GitHub token found, repository checks are skipped"
	reportWrittenMessageConstant          = "findings report written"
	scanExecutionErrorTemplateConstant    = "compliance scan failed: %w"
	outputCreationErrorTemplateConstant   = "unable to create findings report %s: %w"
	dynamicClientErrorTemplateConstant    = "unable to build cluster client: %w"
	executorCreationErrorTemplateConstant = "unable to build command executor: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current scan configuration.
type ConfigurationProvider func() Configuration

// SquadRosterProvider returns the squad-to-component mapping.
type SquadRosterProvider func() *konflux.SquadRoster

// GitHubOptionsProvider returns the GitHub client options shared across commands.
type GitHubOptionsProvider func() githubapi.ClientOptions

// CommandBuilder assembles the scan cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	SquadRosterProvider   SquadRosterProvider
	GitHubOptionsProvider GitHubOptionsProvider
	Components            ComponentSource
	Repositories          RepositoryContentReader
	Inspector             ImageInspector
	Environment           map[string]string
}

// Build constructs the scan command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().StringSlice(namespaceFlagNameConstant, nil, namespaceFlagDescriptionConstant)
	command.Flags().String(squadFlagNameConstant, "", squadFlagDescriptionConstant)
	command.Flags().String(outputFlagNameConstant, "", outputFlagDescriptionConstant)
	command.Flags().String(kubeconfigFlagNameConstant, "", kubeconfigFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration, configurationError := builder.parseConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	logger := builder.resolveLogger()

	componentSource, componentsError := builder.resolveComponents(configuration)
	if componentsError != nil {
		return componentsError
	}

	repositoryReader, repositoriesError := builder.resolveRepositories(logger)
	if repositoriesError != nil {
		return repositoriesError
	}

	imageInspector, inspectorError := builder.resolveInspector(logger)
	if inspectorError != nil {
		return inspectorError
	}

	scanService, serviceError := NewService(logger, componentSource, repositoryReader, imageInspector, builder.resolveRoster())
	if serviceError != nil {
		return serviceError
	}

	findings, scanError := scanService.Scan(command.Context(), ServiceOptions{
		Namespaces:          configuration.Namespaces,
		Squad:               configuration.Squad,
		RequiredImageLabels: configuration.RequiredImageLabels,
	})
	if scanError != nil {
		return fmt.Errorf(scanExecutionErrorTemplateConstant, scanError)
	}

	outputFile, creationError := os.Create(configuration.Output)
	if creationError != nil {
		return fmt.Errorf(outputCreationErrorTemplateConstant, configuration.Output, creationError)
	}
	defer outputFile.Close()

	if writeError := WriteReport(outputFile, findings); writeError != nil {
		return writeError
	}

	logger.Info(reportWrittenMessageConstant,
		zap.String("path", configuration.Output),
		zap.Int("findings", len(findings)),
	)
	return nil
}

func (builder *CommandBuilder) parseConfiguration(command *cobra.Command) (Configuration, error) {
	configuration := builder.resolveConfiguration()

	namespaceFlagValues, namespaceFlagError := command.Flags().GetStringSlice(namespaceFlagNameConstant)
	if namespaceFlagError != nil {
		return Configuration{}, namespaceFlagError
	}
	if len(namespaceFlagValues) > 0 {
		configuration.Namespaces = namespaceFlagValues
	}

	squadFlagValue, squadFlagError := command.Flags().GetString(squadFlagNameConstant)
	if squadFlagError != nil {
		return Configuration{}, squadFlagError
	}
	if len(squadFlagValue) > 0 {
		configuration.Squad = squadFlagValue
	}

	outputFlagValue, outputFlagError := command.Flags().GetString(outputFlagNameConstant)
	if outputFlagError != nil {
		return Configuration{}, outputFlagError
	}
	if len(outputFlagValue) > 0 {
		configuration.Output = outputFlagValue
	}

	kubeconfigFlagValue, kubeconfigFlagError := command.Flags().GetString(kubeconfigFlagNameConstant)
	if kubeconfigFlagError != nil {
		return Configuration{}, kubeconfigFlagError
	}
	if len(kubeconfigFlagValue) > 0 {
		configuration.Kubeconfig = kubeconfigFlagValue
	}

	configuration = configuration.Sanitize()
	if len(configuration.Namespaces) == 0 {
		return Configuration{}, errors.New(missingNamespacesMessageConstant)
	}
	if len(configuration.Output) == 0 {
		return Configuration{}, errors.New(missingOutputMessageConstant)
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

func (builder *CommandBuilder) resolveRoster() *konflux.SquadRoster {
	if builder.SquadRosterProvider == nil {
		return konflux.NewSquadRoster(nil)
	}
	return builder.SquadRosterProvider()
}

func (builder *CommandBuilder) resolveComponents(configuration Configuration) (ComponentSource, error) {
	if builder.Components != nil {
		return builder.Components, nil
	}

	dynamicClient, clientError := konflux.NewDynamicClient(configuration.Kubeconfig)
	if clientError != nil {
		return nil, fmt.Errorf(dynamicClientErrorTemplateConstant, clientError)
	}
	return konflux.NewReader(dynamicClient)
}

func (builder *CommandBuilder) resolveRepositories(logger *zap.Logger) (RepositoryContentReader, error) {
	if builder.Repositories != nil {
		return builder.Repositories, nil
	}

	githubToken, tokenFound := githubauth.ResolveToken(builder.Environment)
	if !tokenFound {
		logger.Warn(missingTokenWarningMessageConstant)
		return nil, nil
	}

	clientOptions := githubapi.ClientOptions{}
	if builder.GitHubOptionsProvider != nil {
		clientOptions = builder.GitHubOptionsProvider()
	}

	githubClient, clientError := githubapi.NewClient(githubToken, clientOptions)
	if clientError != nil {
		return nil, clientError
	}
	retryInvoker, invokerError := githubapi.NewInvoker(logger, githubapi.DefaultRetryPolicy())
	if invokerError != nil {
		return nil, invokerError
	}
	return githubapi.NewRepositoryReader(githubClient, retryInvoker)
}

func (builder *CommandBuilder) resolveInspector(logger *zap.Logger) (ImageInspector, error) {
	if builder.Inspector != nil {
		return builder.Inspector, nil
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return nil, fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}
	return shellExecutor, nil
}
