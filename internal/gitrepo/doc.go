// Package gitrepo parses git remote URLs recorded on Konflux components so
// the scan can address the backing GitHub repository through the API.
package gitrepo
