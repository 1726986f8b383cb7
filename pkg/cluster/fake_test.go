package cluster

import (
	"context"
	"fmt"
	"sync"

	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/records"
)

// fakeBackend records every call as "<method> <args>" and answers from its
// fields.
type fakeBackend struct {
	mu     sync.Mutex
	calls  []string
	lists  map[records.Kind][]records.Record
	err    error
	closed int
}

func (f *fakeBackend) call(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) List(_ context.Context, kind records.Kind, namespace string) ([]records.Record, error) {
	if err := f.call("List %s %s", kind, namespace); err != nil {
		return nil, err
	}
	return f.lists[kind], nil
}

func (f *fakeBackend) ListWorkloadImages(_ context.Context, namespace string) ([]records.Record, error) {
	return nil, f.call("ListWorkloadImages %s", namespace)
}

func (f *fakeBackend) Detail(_ context.Context, kind records.Kind, namespace, name string) (records.Detail, error) {
	if err := f.call("Detail %s %s %s", kind, namespace, name); err != nil {
		return nil, err
	}
	return records.Detail{"kind": kind.String(), "metadata": map[string]any{"name": name}}, nil
}

func (f *fakeBackend) Delete(_ context.Context, kind records.Kind, namespace, name string) (string, error) {
	return fmt.Sprintf("%s %q deleted", kind, name), f.call("Delete %s %s %s", kind, namespace, name)
}

func (f *fakeBackend) CreateNamespace(_ context.Context, name string) (string, error) {
	return "namespace/" + name + " created", f.call("CreateNamespace %s", name)
}

func (f *fakeBackend) DeleteNamespace(_ context.Context, name string) (string, error) {
	return fmt.Sprintf("namespace %q deleted", name), f.call("DeleteNamespace %s", name)
}

func (f *fakeBackend) UpdateWorkloadImage(_ context.Context, namespace, name, image string) (string, error) {
	return "deployment.apps/" + name + " image updated", f.call("UpdateWorkloadImage %s %s %s", namespace, name, image)
}

func (f *fakeBackend) ScaleWorkload(_ context.Context, namespace, name string, replicas int) (string, error) {
	return "deployment.apps/" + name + " scaled", f.call("ScaleWorkload %s %s %d", namespace, name, replicas)
}

func (f *fakeBackend) PodLogs(_ context.Context, namespace, name string, tail int) (string, error) {
	return "line\n", f.call("PodLogs %s %s %d", namespace, name, tail)
}

func (f *fakeBackend) Apply(_ context.Context, namespace, manifest string) (string, error) {
	return "applied", f.call("Apply %s\n%s", namespace, manifest)
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeBackend) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func apiCluster(name string) config.ClusterConfig {
	return config.ClusterConfig{Name: name, Namespace: "shop", Backend: config.BackendAPI}
}
