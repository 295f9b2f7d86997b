package execshell_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konflux-ci/compliance-scans/internal/execshell"
)

const testMissingExecutableNameConstant = "no-such-compliance-tool"

func TestOSCommandRunnerCapturesOutputs(testInstance *testing.T) {
	runner := execshell.NewOSCommandRunner()

	command := execshell.ShellCommand{
		Name: execshell.CommandName("sh"),
		Details: execshell.CommandDetails{
			Arguments: []string{"-c", "printf out; printf err >&2"},
		},
	}
	executionResult, runError := runner.Run(context.Background(), command)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 0, executionResult.ExitCode)
	require.Equal(testInstance, "out", executionResult.StandardOutput)
	require.Equal(testInstance, "err", executionResult.StandardError)
}

func TestOSCommandRunnerReportsExitCodeWithoutError(testInstance *testing.T) {
	runner := execshell.NewOSCommandRunner()

	command := execshell.ShellCommand{
		Name: execshell.CommandName("sh"),
		Details: execshell.CommandDetails{
			Arguments: []string{"-c", "exit 3"},
		},
	}
	executionResult, runError := runner.Run(context.Background(), command)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 3, executionResult.ExitCode)
}

func TestOSCommandRunnerAppliesEnvironmentOverrides(testInstance *testing.T) {
	runner := execshell.NewOSCommandRunner()

	command := execshell.ShellCommand{
		Name: execshell.CommandName("sh"),
		Details: execshell.CommandDetails{
			Arguments:            []string{"-c", "printf %s \"$REGISTRY_AUTH_FILE\""},
			EnvironmentVariables: map[string]string{"REGISTRY_AUTH_FILE": "/tmp/auth.json"},
		},
	}
	executionResult, runError := runner.Run(context.Background(), command)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, "/tmp/auth.json", executionResult.StandardOutput)
}

func TestOSCommandRunnerReportsMissingExecutable(testInstance *testing.T) {
	runner := execshell.NewOSCommandRunner()

	command := execshell.ShellCommand{Name: execshell.CommandName(testMissingExecutableNameConstant)}
	_, runError := runner.Run(context.Background(), command)
	require.Error(testInstance, runError)

	var missingExecutable execshell.ExecutableNotFoundError
	require.ErrorAs(testInstance, runError, &missingExecutable)
	require.Equal(testInstance, execshell.CommandName(testMissingExecutableNameConstant), missingExecutable.CommandName)
	require.Contains(testInstance, missingExecutable.Error(), testMissingExecutableNameConstant)
}
