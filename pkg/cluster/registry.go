// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/audit"
	"github.com/telekom/k8s-dashboard/pkg/clustererr"
	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/metrics"
)

// Store persists the registry. *config.Store implements it.
type Store interface {
	Load() ([]config.ClusterConfig, map[string]error, error)
	Save(configs []config.ClusterConfig) error
}

// Factory builds the client for one cluster.
type Factory func(ctx context.Context, cfg config.ClusterConfig) (*Client, error)

const defaultRetryInterval = 30 * time.Second

// entry pairs a cluster's config with its client, or with the error that
// prevented building one. Entries are replaced, never mutated.
type entry struct {
	cfg       config.ClusterConfig
	client    *Client
	err       error
	attempted time.Time
}

// Registry owns one Client per configured cluster. Every mutation persists
// the registry and closes clients that are replaced or removed.
type Registry struct {
	store         Store
	factory       Factory
	audit         *audit.Manager
	log           *zap.SugaredLogger
	retryInterval time.Duration

	mu      sync.RWMutex
	entries map[string]*entry
}

type RegistryOption func(*Registry)

// WithFactory replaces the client builder.
func WithFactory(f Factory) RegistryOption { return func(r *Registry) { r.factory = f } }

// WithClientOptions builds clients with New and opts.
func WithClientOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.factory = func(ctx context.Context, cfg config.ClusterConfig) (*Client, error) {
			return New(ctx, cfg, opts...)
		}
	}
}

func WithRegistryAudit(m *audit.Manager) RegistryOption {
	return func(r *Registry) { r.audit = m }
}

func WithRegistryLogger(log *zap.SugaredLogger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// WithRetryInterval sets how long Get waits before retrying a cluster whose
// client could not connect.
func WithRetryInterval(d time.Duration) RegistryOption {
	return func(r *Registry) { r.retryInterval = d }
}

func NewRegistry(store Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:         store,
		log:           zap.NewNop().Sugar(),
		retryInterval: defaultRetryInterval,
		entries:       map[string]*entry{},
	}
	for _, o := range opts {
		o(r)
	}
	if r.factory == nil {
		r.factory = func(ctx context.Context, cfg config.ClusterConfig) (*Client, error) {
			return New(ctx, cfg, WithLogger(r.log), WithAudit(r.audit))
		}
	}
	return r
}

// Load populates the registry from the store. Clusters whose secrets cannot
// be decrypted or whose client cannot be built are kept with their error;
// Get reports it.
func (r *Registry) Load(ctx context.Context) error {
	configs, decryptErrs, err := r.store.Load()
	if err != nil {
		return err
	}

	entries := make(map[string]*entry, len(configs))
	for _, cfg := range configs {
		e := &entry{cfg: cfg, attempted: time.Now()}
		if derr, ok := decryptErrs[cfg.ID]; ok {
			metrics.SecretDecryptFailures.WithLabelValues(cfg.ID).Inc()
			r.log.Warnw("Cluster secrets could not be decrypted", "cluster", cfg.ID, "error", derr)
			e.err = clustererr.Annotate(derr, cfg.ID)
		} else {
			e.client, e.err = r.build(ctx, cfg)
		}
		entries[cfg.ID] = e
	}

	r.mu.Lock()
	old := r.entries
	r.entries = entries
	r.mu.Unlock()

	closeEntries(old, r.log)
	metrics.RegisteredClusters.Set(float64(len(entries)))
	r.log.Infow("Loaded cluster registry", "clusters", len(entries), "failed", failedCount(entries))
	return nil
}

func (r *Registry) build(ctx context.Context, cfg config.ClusterConfig) (*Client, error) {
	c, err := r.factory(ctx, cfg)
	if err != nil {
		metrics.ClusterInitFailures.WithLabelValues(cfg.ID).Inc()
		r.log.Warnw("Initializing cluster client failed", "cluster", cfg.ID, "error", err)
		return nil, clustererr.Annotate(err, cfg.ID)
	}
	return c, nil
}

// Get returns the client of id. An unknown id is a NotFound error; a
// cluster that failed to initialize returns that failure. Connection
// failures are retried once retryInterval has passed.
func (r *Registry) Get(ctx context.Context, id string) (*Client, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, clustererr.NotFound("cluster", id, "")
	}
	if e.client != nil {
		return e.client, nil
	}
	if clustererr.KindOf(e.err) != clustererr.KindConnection || time.Since(e.attempted) < r.retryInterval {
		return nil, e.err
	}

	r.log.Infow("Retrying cluster client initialization", "cluster", id)
	client, err := r.build(ctx, e.cfg)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[id] != e {
		// the cluster changed while we were connecting
		if client != nil {
			_ = client.Close()
		}
		if cur, ok := r.entries[id]; ok && cur.client != nil {
			return cur.client, nil
		}
		return nil, clustererr.NotFound("cluster", id, "")
	}
	r.entries[id] = &entry{cfg: e.cfg, client: client, err: err, attempted: time.Now()}
	return client, err
}

// Config returns the stored configuration of id.
func (r *Registry) Config(id string) (config.ClusterConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return config.ClusterConfig{}, clustererr.NotFound("cluster", id, "")
	}
	return e.cfg, nil
}

// InitError returns why the client of id is unavailable, or nil.
func (r *Registry) InitError(id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[id]; ok {
		return e.err
	}
	return nil
}

// Configs returns all configurations sorted by id.
func (r *Registry) Configs() []config.ClusterConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []config.ClusterConfig {
	out := make([]config.ClusterConfig, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Add registers a new cluster keyed by its name. The client must build
// successfully; otherwise nothing is stored.
func (r *Registry) Add(ctx context.Context, cfg config.ClusterConfig) (err error) {
	defer func() { r.audit.ClusterChanged(ctx, audit.EventClusterAdded, cfg.ID, err) }()

	if cfg.ID == "" {
		cfg.ID = cfg.Name
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Backend, _ = config.ParseBackendKind(string(cfg.Backend))
	if _, err := r.Config(cfg.ID); err == nil {
		return clustererr.Conflict("cluster", cfg.ID, "")
	}

	client, err := r.factory(ctx, cfg)
	if err != nil {
		return clustererr.Annotate(err, cfg.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[cfg.ID]; exists {
		_ = client.Close()
		return clustererr.Conflict("cluster", cfg.ID, "")
	}
	r.entries[cfg.ID] = &entry{cfg: cfg, client: client, attempted: time.Now()}
	if err := r.saveLocked(); err != nil {
		delete(r.entries, cfg.ID)
		_ = client.Close()
		return err
	}
	metrics.RegisteredClusters.Set(float64(len(r.entries)))
	r.log.Infow("Added cluster", "cluster", cfg.ID, "backend", cfg.Backend)
	return nil
}

// Update replaces the configuration of id. When the id was derived from the
// old name and the name changes, the entry is re-keyed under the new name.
// Masked secrets in cfg keep their stored values. The client is rebuilt
// when connection settings or the id change.
func (r *Registry) Update(ctx context.Context, id string, cfg config.ClusterConfig) (newID string, err error) {
	defer func() { r.audit.ClusterChanged(ctx, audit.EventClusterUpdated, id, err) }()

	r.mu.RLock()
	old, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return "", clustererr.NotFound("cluster", id, "")
	}
	if err := required("cluster name", cfg.Name); err != nil {
		return "", err
	}

	cfg = mergeUpdate(old.cfg, cfg)
	newID = id
	if old.cfg.Name == id && cfg.Name != id {
		newID = cfg.Name
	}
	cfg.ID = newID
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	cfg.Backend, _ = config.ParseBackendKind(string(cfg.Backend))

	next := &entry{cfg: cfg, client: old.client, err: old.err, attempted: old.attempted}
	rebuilt := !sameConnection(old.cfg, cfg) || old.client == nil || newID != id
	if rebuilt {
		client, err := r.factory(ctx, cfg)
		if err != nil {
			return "", clustererr.Annotate(err, newID)
		}
		next = &entry{cfg: cfg, client: client, attempted: time.Now()}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	discard := func() {
		if rebuilt {
			_ = next.client.Close()
		}
	}
	if r.entries[id] != old {
		discard()
		return "", clustererr.Conflict("cluster", id, "")
	}
	if newID != id {
		if _, exists := r.entries[newID]; exists {
			discard()
			return "", clustererr.Conflict("cluster", newID, "")
		}
		delete(r.entries, id)
	}
	r.entries[newID] = next
	if err := r.saveLocked(); err != nil {
		delete(r.entries, newID)
		r.entries[id] = old
		discard()
		return "", err
	}
	if rebuilt && old.client != nil {
		if err := old.client.Close(); err != nil {
			r.log.Warnw("Closing replaced cluster client failed", "cluster", id, "error", err)
		}
	}
	r.log.Infow("Updated cluster", "cluster", id, "id", newID, "reconnected", rebuilt)
	return newID, nil
}

// Remove deletes id and closes its client.
func (r *Registry) Remove(ctx context.Context, id string) (err error) {
	defer func() { r.audit.ClusterChanged(ctx, audit.EventClusterRemoved, id, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.entries[id]
	if !ok {
		return clustererr.NotFound("cluster", id, "")
	}
	delete(r.entries, id)
	if err := r.saveLocked(); err != nil {
		r.entries[id] = old
		return err
	}
	if old.client != nil {
		if err := old.client.Close(); err != nil {
			r.log.Warnw("Closing removed cluster client failed", "cluster", id, "error", err)
		}
	}
	metrics.RegisteredClusters.Set(float64(len(r.entries)))
	r.log.Infow("Removed cluster", "cluster", id)
	return nil
}

// Close closes every client. The registry is empty afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	old := r.entries
	r.entries = map[string]*entry{}
	r.mu.Unlock()
	return closeEntries(old, r.log)
}

func (r *Registry) saveLocked() error {
	if r.store == nil {
		return nil
	}
	if err := r.store.Save(r.snapshotLocked()); err != nil {
		return fmt.Errorf("saving cluster registry: %w", err)
	}
	return nil
}

func closeEntries(entries map[string]*entry, log *zap.SugaredLogger) error {
	var errs []error
	for id, e := range entries {
		if e.client == nil {
			continue
		}
		if err := e.client.Close(); err != nil {
			log.Warnw("Closing cluster client failed", "cluster", id, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func failedCount(entries map[string]*entry) int {
	n := 0
	for _, e := range entries {
		if e.err != nil {
			n++
		}
	}
	return n
}

// mergeUpdate fills masked or omitted secrets of next from prev.
func mergeUpdate(prev, next config.ClusterConfig) config.ClusterConfig {
	if next.Backend == "" {
		next.Backend = prev.Backend
	}
	if next.SSH == nil && next.Kube == nil {
		next.SSH, next.Kube = prev.SSH, prev.Kube
	}
	if next.SSH != nil && prev.SSH != nil && next.SSH.Password == config.Masked {
		ssh := *next.SSH
		ssh.Password = prev.SSH.Password
		next.SSH = &ssh
	}
	if next.Kube != nil && prev.Kube != nil && next.Kube.Inline == config.Masked {
		kube := *next.Kube
		kube.Inline = prev.Kube.Inline
		next.Kube = &kube
	}
	return next
}

func sameConnection(a, b config.ClusterConfig) bool {
	return a.Backend == b.Backend &&
		a.Namespace == b.Namespace &&
		reflect.DeepEqual(a.SSH, b.SSH) &&
		reflect.DeepEqual(a.Kube, b.Kube)
}
