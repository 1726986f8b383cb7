// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/telekom/k8s-dashboard/pkg/apiresponses"
	"github.com/telekom/k8s-dashboard/pkg/audit"
	"github.com/telekom/k8s-dashboard/pkg/cluster"
	"github.com/telekom/k8s-dashboard/pkg/clustererr"
	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/records"
)

// stubBackend answers every call with canned data and records the calls.
type stubBackend struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubBackend) record(format string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
	return s.err
}

func (s *stubBackend) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubBackend) List(_ context.Context, kind records.Kind, ns string) ([]records.Record, error) {
	if err := s.record("List %s %s", kind, ns); err != nil {
		return nil, err
	}
	switch kind {
	case records.KindNamespace:
		return []records.Record{{"NAME": "default"}, {"NAME": "shop"}}, nil
	case records.KindWorkload:
		return []records.Record{{"NAME": "web", "READY": "1/1", "IMAGES": "repo/web:1"}}, nil
	}
	return nil, nil
}

func (s *stubBackend) ListWorkloadImages(_ context.Context, ns string) ([]records.Record, error) {
	return []records.Record{{"NAME": "web", "IMAGES": "repo/web:1"}}, s.record("ListWorkloadImages %s", ns)
}

func (s *stubBackend) Detail(_ context.Context, kind records.Kind, ns, name string) (records.Detail, error) {
	return records.Detail{"kind": "Service", "metadata": map[string]any{"name": name}}, s.record("Detail %s %s %s", kind, ns, name)
}

func (s *stubBackend) Delete(_ context.Context, kind records.Kind, ns, name string) (string, error) {
	return fmt.Sprintf("%s %q deleted", kind, name), s.record("Delete %s %s %s", kind, ns, name)
}

func (s *stubBackend) CreateNamespace(_ context.Context, name string) (string, error) {
	return "namespace/" + name + " created", s.record("CreateNamespace %s", name)
}

func (s *stubBackend) DeleteNamespace(_ context.Context, name string) (string, error) {
	return fmt.Sprintf("namespace %q deleted", name), s.record("DeleteNamespace %s", name)
}

func (s *stubBackend) UpdateWorkloadImage(_ context.Context, ns, name, image string) (string, error) {
	return "image updated", s.record("UpdateWorkloadImage %s %s %s", ns, name, image)
}

func (s *stubBackend) ScaleWorkload(_ context.Context, ns, name string, replicas int) (string, error) {
	return "scaled", s.record("ScaleWorkload %s %s %d", ns, name, replicas)
}

func (s *stubBackend) PodLogs(_ context.Context, ns, name string, tail int) (string, error) {
	return "hello\n", s.record("PodLogs %s %s %d", ns, name, tail)
}

func (s *stubBackend) Apply(_ context.Context, ns, _ string) (string, error) {
	return "deployment.apps/web created", s.record("Apply %s", ns)
}

func (s *stubBackend) Close() error { return nil }

type memStore struct {
	mu      sync.Mutex
	configs []config.ClusterConfig
}

func (m *memStore) Load() ([]config.ClusterConfig, map[string]error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]config.ClusterConfig(nil), m.configs...), nil, nil
}

func (m *memStore) Save(configs []config.ClusterConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = append([]config.ClusterConfig(nil), configs...)
	return nil
}

type testEnv struct {
	server   *Server
	backend  *stubBackend
	registry *cluster.Registry
	store    *memStore
}

func newTestEnv(t *testing.T, auditMgr *audit.Manager) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	env := &testEnv{
		backend: &stubBackend{},
		store: &memStore{configs: []config.ClusterConfig{{
			ID:        "dev",
			Name:      "dev",
			Namespace: "shop",
			Backend:   config.BackendShell,
			SSH:       &config.SSHConfig{Hostname: "jump", Username: "ops", Password: "s3cret"},
		}}},
	}
	env.registry = cluster.NewRegistry(env.store,
		cluster.WithRegistryLogger(log.Sugar()),
		cluster.WithFactory(func(ctx context.Context, cfg config.ClusterConfig) (*cluster.Client, error) {
			return cluster.New(ctx, cfg, cluster.WithBackend(env.backend), cluster.WithAudit(auditMgr))
		}),
	)
	require.NoError(t, env.registry.Load(context.Background()))

	env.server = NewServer(log, config.Config{}, true)
	require.NoError(t, env.server.RegisterAll([]APIController{
		NewClusterController(log.Sugar(), env.registry),
		NewResourceController(log.Sugar(), env.registry),
	}))
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func TestListClustersRedactsSecrets(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/clusters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "s3cret")

	var got []ClusterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "dev", got[0].ID)
	assert.Equal(t, config.Masked, got[0].SSH.Password)
	assert.Empty(t, got[0].Error)
}

func TestClusterCRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/clusters", map[string]any{
		"name":           "prod",
		"k8s_controller": "KUBE",
		"kube_config":    "/etc/kube/prod.yaml",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"cluster_id":"prod"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/clusters", map[string]any{"name": "prod", "k8s_controller": "KUBE"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPut, "/api/clusters/prod", map[string]any{
		"name":           "production",
		"k8s_controller": "KUBE",
		"kube_config":    "/etc/kube/prod.yaml",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"cluster_id":"production"}`, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/clusters/production", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/clusters/production", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	ids := []string{}
	for _, c := range env.store.configs {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"dev"}, ids)
}

func TestAddClusterValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/clusters", map[string]any{"k8s_controller": "SSH"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/clusters", map[string]any{"name": "x", "k8s_controller": "telnet"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResourceRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCall   string
		wantBody   string
	}{
		{"list namespaces", http.MethodGet, "/api/clusters/dev/namespaces", nil, http.StatusOK, "List namespace ", `"SELECTED":true`},
		{"create namespace", http.MethodPost, "/api/clusters/dev/namespaces", map[string]any{"namespace": "qa"}, http.StatusOK, "CreateNamespace qa", "namespace/qa created"},
		{"delete namespace", http.MethodDelete, "/api/clusters/dev/namespaces/qa", nil, http.StatusOK, "DeleteNamespace qa", "deleted"},
		{"list deployments default namespace", http.MethodGet, "/api/clusters/dev/deployments", nil, http.StatusOK, "List deployment shop", `"NAME":"web"`},
		{"list deployments query namespace", http.MethodGet, "/api/clusters/dev/deployments?namespace=kube-system", nil, http.StatusOK, "List deployment kube-system", ""},
		{"deployment images", http.MethodGet, "/api/clusters/dev/deployments/images", nil, http.StatusOK, "ListWorkloadImages shop", "repo/web:1"},
		{"deployment detail", http.MethodGet, "/api/clusters/dev/deployments/web/detail", nil, http.StatusOK, "Detail deployment shop web", `"name":"web"`},
		{"create deployment", http.MethodPost, "/api/clusters/dev/deployments", map[string]any{"name": "web", "image": "nginx:1.27"}, http.StatusOK, "Apply shop", "created"},
		{"apply yaml", http.MethodPost, "/api/clusters/dev/deployments/yaml", map[string]any{"yaml": "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: x\n"}, http.StatusOK, "Apply shop", ""},
		{"generic yaml", http.MethodPost, "/api/clusters/dev/yaml?namespace=qa", map[string]any{"yaml": "kind: ConfigMap"}, http.StatusOK, "Apply qa", ""},
		{"update image", http.MethodPost, "/api/clusters/dev/deployments/web/update-image", map[string]any{"image": "nginx:1.28"}, http.StatusOK, "UpdateWorkloadImage shop web nginx:1.28", ""},
		{"scale", http.MethodPost, "/api/clusters/dev/deployments/web/scale", map[string]any{"replicas": 0}, http.StatusOK, "ScaleWorkload shop web 0", ""},
		{"delete deployment", http.MethodDelete, "/api/clusters/dev/deployments/web", nil, http.StatusOK, "Delete deployment shop web", ""},
		{"search by image", http.MethodGet, "/api/clusters/dev/search-deployments-by-image?image=repo/web:2", nil, http.StatusOK, "List deployment shop", `"deployments":[{"name":"web"`},
		{"list pods", http.MethodGet, "/api/clusters/dev/pods", nil, http.StatusOK, "List pod shop", "[]"},
		{"delete pod", http.MethodDelete, "/api/clusters/dev/pods/web-1", nil, http.StatusOK, "Delete pod shop web-1", ""},
		{"pod logs", http.MethodGet, "/api/clusters/dev/pods/web-1/logs?lines=20", nil, http.StatusOK, "PodLogs shop web-1 20", `"logs":"hello\n"`},
		{"service detail", http.MethodGet, "/api/clusters/dev/services/api/detail", nil, http.StatusOK, "Detail service shop api", ""},
		{"create service", http.MethodPost, "/api/clusters/dev/services", map[string]any{"name": "api", "ports": []any{80}}, http.StatusOK, "Apply shop", ""},
		{"delete configmap", http.MethodDelete, "/api/clusters/dev/configmaps/settings", nil, http.StatusOK, "Delete configmap shop settings", ""},
		{"list ingresses", http.MethodGet, "/api/clusters/dev/ingresses", nil, http.StatusOK, "List ingress shop", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			w := env.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Contains(t, env.backend.Calls(), tt.wantCall)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestResourceRouteErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"unknown cluster", http.MethodGet, "/api/clusters/nope/pods", nil, http.StatusNotFound},
		{"negative replicas", http.MethodPost, "/api/clusters/dev/deployments/web/scale", map[string]any{"replicas": -1}, http.StatusBadRequest},
		{"missing replicas", http.MethodPost, "/api/clusters/dev/deployments/web/scale", map[string]any{}, http.StatusBadRequest},
		{"replicas not a number", http.MethodPost, "/api/clusters/dev/deployments/web/scale", map[string]any{"replicas": "many"}, http.StatusBadRequest},
		{"missing image", http.MethodPost, "/api/clusters/dev/deployments/web/update-image", map[string]any{}, http.StatusBadRequest},
		{"missing search image", http.MethodGet, "/api/clusters/dev/search-deployments-by-image", nil, http.StatusBadRequest},
		{"bad lines", http.MethodGet, "/api/clusters/dev/pods/web-1/logs?lines=all", nil, http.StatusBadRequest},
		{"empty yaml", http.MethodPost, "/api/clusters/dev/yaml", map[string]any{"yaml": ""}, http.StatusBadRequest},
		{"invalid form", http.MethodPost, "/api/clusters/dev/deployments", map[string]any{"name": "Bad_Name"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Empty(t, env.backend.Calls())
		})
	}
}

func TestBackendErrorsAreMapped(t *testing.T) {
	env := newTestEnv(t, nil)
	env.backend.err = clustererr.NotFound("pod", "web-1", "shop")

	w := env.do(t, http.MethodDelete, "/api/clusters/dev/pods/web-1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	var body apiresponses.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "dev", body.Cluster)

	env.backend.err = clustererr.Connection(nil, "jump host unreachable")
	w = env.do(t, http.MethodGet, "/api/clusters/dev/pods", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

type captureSink struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (s *captureSink) Write(_ context.Context, e *audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}
func (s *captureSink) Close() error { return nil }
func (s *captureSink) Name() string { return "capture" }

func TestRequestContextReachesAudit(t *testing.T) {
	sink := &captureSink{}
	env := newTestEnv(t, audit.NewManager(sink, zaptest.NewLogger(t)))

	req := httptest.NewRequest(http.MethodDelete, "/api/clusters/dev/pods/web-1", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	req.Header.Set("User-Agent", "dashboard-test")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	require.Len(t, sink.events, 1)
	assert.Equal(t, "req-42", sink.events[0].CorrelationID)
	assert.Equal(t, "dashboard-test", sink.events[0].Actor.UserAgent)
	assert.Equal(t, audit.EventResourceDeleted, sink.events[0].Type)
}

func TestRequestIDGenerated(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestMetricsAndVersionEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/clusters", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dashboard_api_requests_total")

	w = env.do(t, http.MethodGet, "/api/version", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version"`)
}

func TestRateLimitedServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	s := NewServer(log, config.Config{Server: config.Server{RateLimit: 1, RateBurst: 1}}, true)
	t.Cleanup(s.limiter.Stop)
	require.NoError(t, s.RegisterAll([]APIController{NewClusterController(log.Sugar(), cluster.NewRegistry(&memStore{}))}))

	codes := []int{}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/clusters", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
