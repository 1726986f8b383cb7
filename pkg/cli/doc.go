// Package cli defines the dashboard command tree: the API server and the
// registry maintenance commands.
package cli
