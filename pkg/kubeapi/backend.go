// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package kubeapi

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/metrics"
	"github.com/telekom/k8s-dashboard/pkg/records"
)

// Backend calls the Kubernetes API of one cluster. It keeps no connection
// state: every operation resolves the kubeconfig and builds a new clientset,
// so kubeconfig edits on disk take effect on the next call.
type Backend struct {
	cluster string
	kube    config.KubeConfig
	factory ClientFactory
	log     *zap.SugaredLogger
}

type Option func(*Backend)

// WithClientFactory replaces the clientset builder.
func WithClientFactory(f ClientFactory) Option { return func(b *Backend) { b.factory = f } }

func WithLogger(log *zap.SugaredLogger) Option { return func(b *Backend) { b.log = log } }

func New(cluster string, kube config.KubeConfig, opts ...Option) *Backend {
	b := &Backend{
		cluster: cluster,
		kube:    kube,
		factory: NewClientset,
		log:     zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Close is a no-op; there is nothing to release between calls.
func (b *Backend) Close() error { return nil }

// with builds a fresh clientset and runs fn with it.
func (b *Backend) with(ctx context.Context, op string, fn func(ctx context.Context, cs kubernetes.Interface) error) error {
	cs, err := b.factory(ctx, b.kube)
	if err != nil {
		metrics.APIClientBuildFailures.WithLabelValues(b.cluster).Inc()
		b.log.Warnw("Building Kubernetes client failed", "cluster", b.cluster, "operation", op, "error", err)
		return clustererr.Configuration(err, "kubeconfig for %s", op)
	}
	metrics.APIClientBuilds.WithLabelValues(b.cluster).Inc()
	b.log.Debugw("Built Kubernetes client", "cluster", b.cluster, "operation", op)
	return fn(ctx, cs)
}

// apiError maps a client-go error onto the error taxonomy.
func apiError(err error, kind records.Kind, name, namespace string) error {
	if err == nil {
		return nil
	}
	switch {
	case apierrors.IsNotFound(err):
		return clustererr.NotFound(kind.String(), name, namespace)
	case apierrors.IsAlreadyExists(err):
		return clustererr.Conflict(kind.String(), name, namespace)
	}
	var status apierrors.APIStatus
	if errors.As(err, &status) {
		return clustererr.Backend(err, int(status.Status().Code), "%s %s", kind, name)
	}
	return clustererr.Connection(err, "calling Kubernetes API for %s %s", kind, name)
}

// detail converts a typed object into the canonical detail shape. Objects
// returned by client-go carry no TypeMeta, so gvk is set explicitly.
func detail(obj runtime.Object, gvk schema.GroupVersionKind) (records.Detail, error) {
	obj.GetObjectKind().SetGroupVersionKind(gvk)
	m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("to unstructured: %w", err)
	}
	return records.CanonicalDetail(m), nil
}
