// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package clustererr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a cluster access failure.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindConnection    Kind = "connection"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindBackend       Kind = "backend"
	KindDecryption    Kind = "decryption"
)

// Sentinels usable with errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("invalid configuration")
	ErrConnection    = errors.New("connection failed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrBackend       = errors.New("backend failure")
	ErrDecryption    = errors.New("decryption failed")
)

var sentinels = map[Kind]error{
	KindValidation:    ErrValidation,
	KindConfiguration: ErrConfiguration,
	KindConnection:    ErrConnection,
	KindNotFound:      ErrNotFound,
	KindConflict:      ErrConflict,
	KindBackend:       ErrBackend,
	KindDecryption:    ErrDecryption,
}

// Error carries enough structure for the HTTP layer to render a useful message.
type Error struct {
	Kind      Kind
	Message   string
	Cluster   string
	Resource  string
	Name      string
	Namespace string
	// Status is the upstream status code (HTTP status or remote exit code), if any.
	Status int
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Cluster != "" {
		fmt.Fprintf(&b, "cluster %s: ", e.Cluster)
	}
	b.WriteString(e.Message)
	if e.Message == "" {
		b.WriteString(sentinels[e.Kind].Error())
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// WithCluster returns a copy annotated with the cluster id. Existing ids are kept.
func (e *Error) WithCluster(id string) *Error {
	cp := *e
	if cp.Cluster == "" {
		cp.Cluster = id
	}
	return &cp
}

// Validation reports missing or malformed caller input.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Required is the Validation error for a missing argument.
func Required(field string) *Error {
	return &Error{Kind: KindValidation, Message: field + " is required", Name: field}
}

// Configuration reports an unusable cluster configuration.
func Configuration(err error, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...), Err: err}
}

// Connection reports a session establishment failure.
func Connection(err error, format string, args ...any) *Error {
	return &Error{Kind: KindConnection, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound names the missing resource. An empty namespace means cluster-scoped.
func NotFound(resource, name, namespace string) *Error {
	msg := fmt.Sprintf("%s %q not found", resource, name)
	if namespace != "" {
		msg = fmt.Sprintf("%s %q not found in namespace %q", resource, name, namespace)
	}
	return &Error{Kind: KindNotFound, Message: msg, Resource: resource, Name: name, Namespace: namespace}
}

// Conflict reports a create against an existing resource.
func Conflict(resource, name, namespace string) *Error {
	msg := fmt.Sprintf("%s %q already exists", resource, name)
	if namespace != "" {
		msg = fmt.Sprintf("%s %q already exists in namespace %q", resource, name, namespace)
	}
	return &Error{Kind: KindConflict, Message: msg, Resource: resource, Name: name, Namespace: namespace}
}

// Backend reports a failed remote command or API call.
func Backend(err error, status int, format string, args ...any) *Error {
	return &Error{Kind: KindBackend, Message: fmt.Sprintf(format, args...), Status: status, Err: err}
}

// Decryption reports a secret that could not be recovered.
func Decryption(err error) *Error {
	return &Error{Kind: KindDecryption, Message: "could not decrypt secret", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Annotate attaches the cluster id to err when it is (or wraps) an *Error.
// Other errors are wrapped as Backend errors so callers always get structure.
func Annotate(err error, cluster string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e.WithCluster(cluster)
	}
	return &Error{Kind: KindBackend, Message: "operation failed", Cluster: cluster, Err: err}
}
