// Package scan evaluates compliance checks against Konflux components and
// renders the results as a findings report.
package scan
