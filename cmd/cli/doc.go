// Package cli assembles the konflux-compliance command hierarchy with shared
// configuration loading and logging.
package cli
