// Package api implements the dashboard HTTP server (Gin-based): cluster
// registry CRUD, per-cluster resource routes, metrics and SPA serving.
package api
