// Package execshell runs external command-line tools required by the
// compliance scan, currently skopeo for container image inspection, while
// logging command lifecycles through zap.
package execshell
