package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konflux-ci/compliance-scans/internal/utils"
)

const (
	testConfigurationFilePathConstant = "/etc/konflux-compliance/config.yaml"
)

func TestCommandContextAccessorConfigurationFilePath(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, available := accessor.ConfigurationFilePath(context.Background())
	require.False(testInstance, available)

	_, available = accessor.ConfigurationFilePath(nil)
	require.False(testInstance, available)

	decoratedContext := accessor.WithConfigurationFilePath(context.Background(), testConfigurationFilePathConstant)
	storedPath, available := accessor.ConfigurationFilePath(decoratedContext)
	require.True(testInstance, available)
	require.Equal(testInstance, testConfigurationFilePathConstant, storedPath)
}

func TestCommandContextAccessorLogSettings(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, available := accessor.LogSettings(context.Background())
	require.False(testInstance, available)

	_, available = accessor.LogSettings(nil)
	require.False(testInstance, available)

	requestedSettings := utils.LogSettings{Level: utils.LogLevelDebug, Format: utils.LogFormatConsole}
	decoratedContext := accessor.WithLogSettings(context.Background(), requestedSettings)
	storedSettings, available := accessor.LogSettings(decoratedContext)
	require.True(testInstance, available)
	require.Equal(testInstance, requestedSettings, storedSettings)
}

func TestCommandContextAccessorNilParentContext(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	decoratedContext := accessor.WithConfigurationFilePath(nil, testConfigurationFilePathConstant)
	require.NotNil(testInstance, decoratedContext)

	decoratedContext = accessor.WithLogSettings(nil, utils.LogSettings{Level: utils.LogLevelInfo, Format: utils.LogFormatStructured})
	storedSettings, available := accessor.LogSettings(decoratedContext)
	require.True(testInstance, available)
	require.Equal(testInstance, utils.LogLevelInfo, storedSettings.Level)
}
