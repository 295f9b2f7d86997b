// Package jira is a minimal JIRA REST v2 client covering the operations the
// compliance tooling needs: JQL search, issue creation, and commenting.
// Transport-level retry for 429 and 5xx responses comes from retryablehttp.
package jira
