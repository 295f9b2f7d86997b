// Package githubauth resolves GitHub credentials for the compliance tooling:
// personal access tokens from the environment and GitHub App installation
// access tokens exchanged from a signed application JWT.
package githubauth
