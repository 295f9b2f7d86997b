// Package tickets turns compliance findings into JIRA issues, suppressing
// groups that already have an open ticket.
package tickets
