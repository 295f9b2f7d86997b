// Package ratelimit reports GitHub API rate-limit budgets and enforces a
// configurable floor on the remaining core quota.
package ratelimit
