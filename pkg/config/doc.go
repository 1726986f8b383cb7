// Package config loads the dashboard server configuration and reads and
// writes the cluster registry file, including the per-cluster connection
// settings for the shell and API backends.
package config
