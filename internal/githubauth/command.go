package githubauth

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	commandUseConstant              = "app-token"
	commandShortDescriptionConstant = "Mint a GitHub App installation access token"
	commandLongDescriptionConstant  = "app-token signs a GitHub App JWT and exchanges it for an installation access token, printed to standard output."

	appIDFlagNameConstant                 = "app-id"
	appIDFlagDescriptionConstant          = "GitHub App identifier"
	installationIDFlagNameConstant        = "installation-id"
	installationIDFlagDescriptionConstant = "GitHub App installation identifier"
	privateKeyFlagNameConstant            = "private-key"
	privateKeyFlagDescriptionConstant     = "Path to the App's PEM private key"

	tokenMintedMessageConstant    = "installation token minted"
	exchangeErrorTemplateConstant = "token exchange failed: %w"
	tokenOutputTemplateConstant   = "%s\n"
)

// Exchanger mints installation tokens from App credentials.
type Exchanger interface {
	ExchangeInstallationToken(executionContext context.Context, credentials AppCredentials) (InstallationToken, error)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current GitHub configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the app-token cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Broker                Exchanger
}

// Build constructs the app-token command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().Int64(appIDFlagNameConstant, 0, appIDFlagDescriptionConstant)
	command.Flags().Int64(installationIDFlagNameConstant, 0, installationIDFlagDescriptionConstant)
	command.Flags().String(privateKeyFlagNameConstant, "", privateKeyFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration, configurationError := builder.parseConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	credentials, credentialsError := LoadAppCredentials(configuration.AppID, configuration.InstallationID, configuration.PrivateKeyPath)
	if credentialsError != nil {
		return credentialsError
	}

	tokenBroker := builder.resolveBroker(configuration)
	installationToken, exchangeError := tokenBroker.ExchangeInstallationToken(command.Context(), credentials)
	if exchangeError != nil {
		return fmt.Errorf(exchangeErrorTemplateConstant, exchangeError)
	}

	builder.resolveLogger().Info(tokenMintedMessageConstant,
		zap.Int64("app_id", configuration.AppID),
		zap.Int64("installation_id", configuration.InstallationID),
		zap.Time("expires_at", installationToken.ExpiresAt),
	)

	fmt.Fprintf(command.OutOrStdout(), tokenOutputTemplateConstant, installationToken.Value)
	return nil
}

func (builder *CommandBuilder) parseConfiguration(command *cobra.Command) (Configuration, error) {
	configuration := builder.resolveConfiguration()

	appIDFlagValue, appIDFlagError := command.Flags().GetInt64(appIDFlagNameConstant)
	if appIDFlagError != nil {
		return Configuration{}, appIDFlagError
	}
	if appIDFlagValue > 0 {
		configuration.AppID = appIDFlagValue
	}

	installationIDFlagValue, installationIDFlagError := command.Flags().GetInt64(installationIDFlagNameConstant)
	if installationIDFlagError != nil {
		return Configuration{}, installationIDFlagError
	}
	if installationIDFlagValue > 0 {
		configuration.InstallationID = installationIDFlagValue
	}

	privateKeyFlagValue, privateKeyFlagError := command.Flags().GetString(privateKeyFlagNameConstant)
	if privateKeyFlagError != nil {
		return Configuration{}, privateKeyFlagError
	}
	if len(privateKeyFlagValue) > 0 {
		configuration.PrivateKeyPath = privateKeyFlagValue
	}

	return configuration.Sanitize(), nil
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

func (builder *CommandBuilder) resolveBroker(configuration Configuration) Exchanger {
	if builder.Broker != nil {
		return builder.Broker
	}
	return NewTokenBroker(nil, configuration.APIBaseURL, nil)
}
