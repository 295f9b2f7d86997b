package execshell

import (
	"errors"
	"fmt"
	"strings"
)

const (
	skopeoToolNameConstant                    = "skopeo"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandFailureTemplateConstant            = "%s exited with code %d"
	commandFailureWithStderrTemplateConstant  = "%s exited with code %d: %s"
	executableNotFoundTemplateConstant        = "%s is not installed or not on PATH: %v"
)

// CommandName identifies a supported executable.
type CommandName string

// Supported executable enumerations.
const (
	CommandSkopeo CommandName = CommandName(skopeoToolNameConstant)
)

// CommandDetails describes a single invocation of an executable.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines a CommandName with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outputs of a completed command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// Sentinel construction errors.
var (
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command including trimmed standard error output.
func (failure CommandFailedError) Error() string {
	commandLabel := string(failure.Command.Name)
	if len(failure.Command.Details.Arguments) > 0 {
		commandLabel = commandLabel + " " + strings.Join(failure.Command.Details.Arguments, " ")
	}
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailureTemplateConstant, commandLabel, failure.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailureWithStderrTemplateConstant, commandLabel, failure.Result.ExitCode, trimmedStandardError)
}

// ExecutableNotFoundError reports a command whose executable could not be resolved on PATH.
type ExecutableNotFoundError struct {
	CommandName CommandName
	Cause       error
}

// Error describes the missing executable.
func (failure ExecutableNotFoundError) Error() string {
	return fmt.Sprintf(executableNotFoundTemplateConstant, failure.CommandName, failure.Cause)
}

// Unwrap exposes the underlying lookup error.
func (failure ExecutableNotFoundError) Unwrap() error {
	return failure.Cause
}
