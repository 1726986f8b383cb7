// Package cluster provides the per-cluster client facade over the shell and
// API backends, and the registry that owns one client per configured cluster.
package cluster
