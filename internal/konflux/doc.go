// Package konflux reads Component and Snapshot custom resources from a
// Konflux workspace through the Kubernetes dynamic client.
package konflux
