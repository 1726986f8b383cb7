package api

import (
	"context"

	"github.com/telekom/k8s-dashboard/pkg/cluster"
	"github.com/telekom/k8s-dashboard/pkg/config"
)

// Registry is the part of *cluster.Registry the handlers use.
type Registry interface {
	Get(ctx context.Context, id string) (*cluster.Client, error)
	Configs() []config.ClusterConfig
	InitError(id string) error
	Add(ctx context.Context, cfg config.ClusterConfig) error
	Update(ctx context.Context, id string, cfg config.ClusterConfig) (string, error)
	Remove(ctx context.Context, id string) error
}

var _ Registry = (*cluster.Registry)(nil)
