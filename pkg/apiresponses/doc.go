// Package apiresponses provides the JSON response helpers shared by the HTTP
// handlers, including the mapping from cluster errors to status codes.
package apiresponses
