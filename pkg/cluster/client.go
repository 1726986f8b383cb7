// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/audit"
	"github.com/telekom/k8s-dashboard/pkg/clustererr"
	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/kubeapi"
	"github.com/telekom/k8s-dashboard/pkg/metrics"
	"github.com/telekom/k8s-dashboard/pkg/shell"
)

// Client is the operation set of one cluster. It defaults namespaces,
// validates arguments, forwards to the backend chosen at construction and
// annotates errors with the cluster id.
type Client struct {
	cfg     config.ClusterConfig
	backend Backend
	audit   *audit.Manager
	log     *zap.SugaredLogger
}

type options struct {
	shell   []shell.Option
	api     []kubeapi.Option
	audit   *audit.Manager
	log     *zap.SugaredLogger
	backend Backend
}

type Option func(*options)

// WithShellOptions passes options to the SSH backend.
func WithShellOptions(opts ...shell.Option) Option {
	return func(o *options) { o.shell = append(o.shell, opts...) }
}

// WithAPIOptions passes options to the Kubernetes API backend.
func WithAPIOptions(opts ...kubeapi.Option) Option {
	return func(o *options) { o.api = append(o.api, opts...) }
}

func WithAudit(m *audit.Manager) Option { return func(o *options) { o.audit = m } }

func WithLogger(log *zap.SugaredLogger) Option { return func(o *options) { o.log = log } }

// WithBackend skips backend selection and uses b.
func WithBackend(b Backend) Option { return func(o *options) { o.backend = b } }

// New builds the client for cfg. The shell backend connects immediately; a
// failed connect is returned as a Connection error.
func New(ctx context.Context, cfg config.ClusterConfig, opts ...Option) (*Client, error) {
	o := options{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.ID == "" {
		cfg.ID = cfg.Name
	}

	kind, err := config.ParseBackendKind(string(cfg.Backend))
	if err != nil {
		return nil, clustererr.Annotate(err, cfg.ID)
	}
	cfg.Backend = kind

	c := &Client{cfg: cfg, audit: o.audit, log: o.log}
	if o.backend != nil {
		c.backend = o.backend
		return c, nil
	}

	switch kind {
	case config.BackendShell:
		if cfg.SSH == nil {
			return nil, clustererr.Configuration(nil, "ssh_config is required for the SSH backend").WithCluster(cfg.ID)
		}
		b, err := shell.New(ctx, cfg.ID, *cfg.SSH, append(o.shell, shell.WithLogger(o.log))...)
		if err != nil {
			return nil, clustererr.Annotate(err, cfg.ID)
		}
		c.backend = b
	case config.BackendAPI:
		var kube config.KubeConfig
		if cfg.Kube != nil {
			kube = *cfg.Kube
		}
		c.backend = kubeapi.New(cfg.ID, kube, append(o.api, kubeapi.WithLogger(o.log))...)
	}
	o.log.Infow("Cluster client ready", "cluster", cfg.ID, "backend", kind)
	return c, nil
}

func (c *Client) ID() string { return c.cfg.ID }

// Config returns the configuration the client was built from.
func (c *Client) Config() config.ClusterConfig { return c.cfg }

// Close releases the backend. It is safe to call more than once.
func (c *Client) Close() error {
	return c.backend.Close()
}

func (c *Client) namespace(ns string) string {
	if ns == "" {
		return c.cfg.DefaultNamespace()
	}
	return ns
}

// observe records metrics for op and annotates err with the cluster id.
func (c *Client) observe(op string, start time.Time, err error) error {
	result := "ok"
	if err != nil {
		result = string(clustererr.KindOf(err))
		if result == "" {
			result = "error"
		}
		c.log.Debugw("Cluster operation failed", "cluster", c.cfg.ID, "operation", op, "error", err)
	}
	backend := string(c.cfg.Backend)
	metrics.ClusterOperations.WithLabelValues(c.cfg.ID, backend, op, result).Inc()
	metrics.ClusterOperationDuration.WithLabelValues(c.cfg.ID, backend, op).Observe(time.Since(start).Seconds())
	return clustererr.Annotate(err, c.cfg.ID)
}

func (c *Client) record(ctx context.Context, eventType audit.EventType, kind, namespace, name string, details map[string]interface{}, err error) {
	c.audit.Mutation(ctx, eventType, audit.Target{
		Cluster:   c.cfg.ID,
		Kind:      kind,
		Name:      name,
		Namespace: namespace,
	}, details, err)
}
