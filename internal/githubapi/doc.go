// Package githubapi wraps the go-github client with token wiring and a
// retry-aware invoker that understands primary and secondary rate limits.
package githubapi
