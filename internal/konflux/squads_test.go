package konflux_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konflux-ci/compliance-scans/internal/konflux"
)

func TestSquadRosterOwnership(testInstance *testing.T) {
	roster := konflux.NewSquadRoster(map[string][]string{
		"Platform": {"platform-*", "infra-api"},
		"payments": {"payments-*"},
	})

	testCases := []struct {
		name          string
		componentName string
		expectedSquad string
	}{
		{name: "glob_match", componentName: "platform-operator", expectedSquad: "platform"},
		{name: "exact_match", componentName: "infra-api", expectedSquad: "platform"},
		{name: "second_squad", componentName: "payments-api", expectedSquad: "payments"},
		{name: "no_owner", componentName: "orphan-service", expectedSquad: konflux.UnassignedSquadName},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedSquad, roster.SquadForComponent(testCase.componentName))
		})
	}
}

func TestSquadRosterFilter(testInstance *testing.T) {
	roster := konflux.NewSquadRoster(map[string][]string{
		"platform": {"platform-*"},
	})

	require.True(testInstance, roster.OwnedByComponentFilter("", "anything"))
	require.True(testInstance, roster.OwnedByComponentFilter("platform", "platform-operator"))
	require.True(testInstance, roster.OwnedByComponentFilter("PLATFORM", "platform-operator"))
	require.False(testInstance, roster.OwnedByComponentFilter("platform", "payments-api"))
}
