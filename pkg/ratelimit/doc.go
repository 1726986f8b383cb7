// Package ratelimit provides per-client token-bucket rate limiting middleware
// for the dashboard API, with automatic stale-entry cleanup.
package ratelimit
