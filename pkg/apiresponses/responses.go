/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package apiresponses

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
)

// APIError represents a standardized error response.
// This ensures consistent error message formatting across all API endpoints.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Cluster string `json:"cluster,omitempty"`
	Details string `json:"details,omitempty"`
}

// Success is the body of a successful mutation.
type Success struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// StatusFor maps an error to the HTTP status and response code the API uses
// for it. Errors outside the cluster taxonomy are internal errors.
func StatusFor(err error) (int, string) {
	var ce *clustererr.Error
	if !errors.As(err, &ce) {
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
	switch ce.Kind {
	case clustererr.KindValidation:
		return http.StatusBadRequest, "BAD_REQUEST"
	case clustererr.KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case clustererr.KindConflict:
		return http.StatusConflict, "CONFLICT"
	case clustererr.KindConnection:
		return http.StatusBadGateway, "CONNECTION_FAILED"
	case clustererr.KindBackend:
		// upstream client errors (forbidden, invalid) are passed through
		if ce.Status >= 400 && ce.Status < 500 {
			return ce.Status, "BACKEND_ERROR"
		}
		return http.StatusBadGateway, "BACKEND_ERROR"
	case clustererr.KindConfiguration:
		return http.StatusInternalServerError, "CONFIGURATION_ERROR"
	case clustererr.KindDecryption:
		return http.StatusInternalServerError, "DECRYPTION_ERROR"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// RespondError writes err with the status StatusFor chooses. Server-side
// failures are logged; caller errors are not.
func RespondError(c *gin.Context, operation string, err error, log *zap.SugaredLogger) {
	status, code := StatusFor(err)
	body := APIError{Error: err.Error(), Code: code}
	var ce *clustererr.Error
	if errors.As(err, &ce) {
		body.Cluster = ce.Cluster
	}
	if status >= http.StatusInternalServerError && log != nil {
		log.Errorw(fmt.Sprintf("Failed to %s", operation), "error", err, "status", status)
	}
	c.JSON(status, body)
}

// RespondNotFound sends a 404 Not Found response with a standardized message.
// Use this when a requested resource does not exist.
func RespondNotFound(c *gin.Context, resourceType, resourceName string) {
	c.JSON(http.StatusNotFound, APIError{
		Error: fmt.Sprintf("%s not found: %s", resourceType, resourceName),
		Code:  "NOT_FOUND",
	})
}

// RespondBadRequest sends a 400 Bad Request response.
// Use this for client errors like malformed JSON or invalid parameters.
func RespondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, APIError{
		Error: message,
		Code:  "BAD_REQUEST",
	})
}

// RespondBadRequestWithDetails sends a 400 Bad Request with additional details.
func RespondBadRequestWithDetails(c *gin.Context, message, details string) {
	c.JSON(http.StatusBadRequest, APIError{
		Error:   message,
		Code:    "BAD_REQUEST",
		Details: details,
	})
}

// RespondOK sends a 200 OK response with the given data.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondMessage sends the success body carrying a backend message.
func RespondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Success{Success: true, Message: message})
}
