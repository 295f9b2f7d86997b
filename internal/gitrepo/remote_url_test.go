package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konflux-ci/compliance-scans/internal/gitrepo"
)

func TestParseRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name           string
		remote         string
		expectError    bool
		expectedResult gitrepo.RemoteURL
	}{
		{
			name:   "https_with_git_suffix",
			remote: "https://github.com/konflux-ci/build-definitions.git",
			expectedResult: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolHTTPS,
				Host:       "github.com",
				Owner:      "konflux-ci",
				Repository: "build-definitions",
			},
		},
		{
			name:   "https_without_git_suffix",
			remote: "https://github.com/org/component-repo",
			expectedResult: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolHTTPS,
				Host:       "github.com",
				Owner:      "org",
				Repository: "component-repo",
			},
		},
		{
			name:   "ssh_scp_style",
			remote: "git@github.com:org/component-repo.git",
			expectedResult: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolSSH,
				Host:       "github.com",
				Owner:      "org",
				Repository: "component-repo",
			},
		},
		{
			name:   "ssh_url_style",
			remote: "ssh://git@github.com/org/component-repo.git",
			expectedResult: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolSSH,
				Host:       "github.com",
				Owner:      "org",
				Repository: "component-repo",
			},
		},
		{
			name:        "empty_input",
			remote:      "  ",
			expectError: true,
		},
		{
			name:        "unsupported_protocol",
			remote:      "ftp://github.com/org/repo",
			expectError: true,
		},
		{
			name:        "missing_repository_segment",
			remote:      "https://github.com/org",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedRemote, parseError := gitrepo.ParseRemoteURL(testCase.remote)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				var parseFailure gitrepo.RemoteURLParseError
				require.ErrorAs(testInstance, parseError, &parseFailure)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedResult, parsedRemote)
			require.True(testInstance, parsedRemote.IsGitHub())
		})
	}
}
