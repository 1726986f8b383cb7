// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReqLoggerKey is the context key used to store request-scoped logger in gin context.
const ReqLoggerKey = "reqLogger"

// GetReqLogger returns the request-scoped sugared logger from gin.Context if present,
// otherwise returns a fallback sugared logger derived from the provided zap.Logger.
func GetReqLogger(c *gin.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return fallback
	}
	if v, ok := c.Get(ReqLoggerKey); ok {
		if l, ok2 := v.(*zap.SugaredLogger); ok2 {
			return l
		}
	}
	return fallback
}

// EnrichReqLoggerWithCluster annotates the request-scoped logger with the cluster
// id and namespace path parameters when the route carries them.
func EnrichReqLoggerWithCluster(c *gin.Context, reqLogger *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil || reqLogger == nil {
		return reqLogger
	}
	if id := c.Param("cluster_id"); id != "" {
		reqLogger = reqLogger.With("cluster", id)
	}
	if ns := c.Param("namespace"); ns != "" {
		reqLogger = reqLogger.With("namespace", ns)
	}
	return reqLogger
}

// NamespacedFields returns a variadic slice of key/value pairs suitable for passing
// to SugaredLogger.With or Infow/Errorw calls. If namespace is empty it will only
// include the "name" key; otherwise it includes both "name" and "namespace".
func NamespacedFields(name, namespace string) []interface{} {
	if namespace == "" {
		return []interface{}{"name", name}
	}
	return []interface{}{"name", name, "namespace", namespace}
}
