package cluster

import (
	"context"

	"github.com/telekom/k8s-dashboard/pkg/kubeapi"
	"github.com/telekom/k8s-dashboard/pkg/records"
	"github.com/telekom/k8s-dashboard/pkg/shell"
)

// Backend is the capability set both cluster backends implement. Arguments
// are already validated and namespaces already defaulted by Client.
type Backend interface {
	List(ctx context.Context, kind records.Kind, namespace string) ([]records.Record, error)
	ListWorkloadImages(ctx context.Context, namespace string) ([]records.Record, error)
	Detail(ctx context.Context, kind records.Kind, namespace, name string) (records.Detail, error)
	Delete(ctx context.Context, kind records.Kind, namespace, name string) (string, error)
	CreateNamespace(ctx context.Context, name string) (string, error)
	DeleteNamespace(ctx context.Context, name string) (string, error)
	UpdateWorkloadImage(ctx context.Context, namespace, name, image string) (string, error)
	ScaleWorkload(ctx context.Context, namespace, name string, replicas int) (string, error)
	PodLogs(ctx context.Context, namespace, name string, tail int) (string, error)
	Apply(ctx context.Context, namespace, manifest string) (string, error)
	Close() error
}

var (
	_ Backend = (*shell.Backend)(nil)
	_ Backend = (*kubeapi.Backend)(nil)
)
