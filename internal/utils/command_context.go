package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	logSettingsContextKeyConstant           = commandContextKey("logSettings")
)

type commandContextKey string

// LogSettings captures the logging configuration resolved for a command run.
type LogSettings struct {
	Level  LogLevel
	Format LogFormat
}

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return "", false
	}
	return configurationFilePath, true
}

// WithLogSettings attaches the resolved logging configuration to the provided context.
func (accessor CommandContextAccessor) WithLogSettings(parentContext context.Context, settings LogSettings) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, logSettingsContextKeyConstant, settings)
}

// LogSettings extracts the resolved logging configuration from the provided context.
func (accessor CommandContextAccessor) LogSettings(executionContext context.Context) (LogSettings, bool) {
	if executionContext == nil {
		return LogSettings{}, false
	}
	settings, settingsAvailable := executionContext.Value(logSettingsContextKeyConstant).(LogSettings)
	if !settingsAvailable {
		return LogSettings{}, false
	}
	return settings, true
}
