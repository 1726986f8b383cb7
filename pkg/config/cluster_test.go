package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
)

func TestParseBackendKind(t *testing.T) {
	tests := []struct {
		in      string
		want    BackendKind
		wantErr bool
	}{
		{"", BackendShell, false},
		{"SSH", BackendShell, false},
		{"shell", BackendShell, false},
		{"KUBE", BackendAPI, false},
		{"api", BackendAPI, false},
		{" Kube ", BackendAPI, false},
		{"docker", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackendKind(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, clustererr.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClusterConfigYAML(t *testing.T) {
	raw := `
name: prod
namespace: shop
k8s_controller: SSH
ssh_config:
  hostname: 10.0.0.1
  port: 2222
  username: ops
  password: ENC:abc
`
	var c ClusterConfig
	require.NoError(t, yaml.Unmarshal([]byte(raw), &c))
	assert.Equal(t, BackendShell, c.Backend)
	assert.Equal(t, "10.0.0.1:2222", c.SSH.Address())
	assert.Equal(t, "shop", c.DefaultNamespace())

	out, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(out), "k8s_controller: SSH")
	assert.NotContains(t, string(out), "id:")
}

func TestKubeConfigForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want func(t *testing.T, k KubeConfig)
	}{
		{
			name: "path string",
			raw:  "kube_config: /home/ops/.kube/prod\n",
			want: func(t *testing.T, k KubeConfig) {
				assert.Equal(t, KubeConfig{Path: "/home/ops/.kube/prod"}, k)
			},
		},
		{
			name: "path and context",
			raw:  "kube_config:\n  path: /k\n  context: prod\n",
			want: func(t *testing.T, k KubeConfig) {
				assert.Equal(t, KubeConfig{Path: "/k", Context: "prod"}, k)
			},
		},
		{
			name: "inline kubeconfig document",
			raw:  "kube_config:\n  apiVersion: v1\n  clusters:\n  - name: c\n    cluster:\n      server: https://k8s:6443\n",
			want: func(t *testing.T, k KubeConfig) {
				assert.Empty(t, k.Path)
				assert.Contains(t, k.Inline, "server: https://k8s:6443")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var holder struct {
				Kube KubeConfig `yaml:"kube_config"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.raw), &holder))
			tt.want(t, holder.Kube)
		})
	}
}

func TestKubeConfigMarshalPathOnly(t *testing.T) {
	out, err := yaml.Marshal(map[string]KubeConfig{"kube_config": {Path: "/k"}})
	require.NoError(t, err)
	assert.Equal(t, "kube_config: /k\n", string(out))
}

func TestClusterConfigJSON(t *testing.T) {
	body := `{"name":"dev","k8s_controller":"KUBE","kube_config":"/k"}`
	var c ClusterConfig
	require.NoError(t, json.Unmarshal([]byte(body), &c))
	assert.Equal(t, BackendAPI, c.Backend)
	assert.Equal(t, "/k", c.Kube.Path)

	err := json.Unmarshal([]byte(`{"name":"x","k8s_controller":"podman"}`), &c)
	assert.Error(t, err)
}

func TestClusterConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ClusterConfig
		wantErr error
	}{
		{"missing name", ClusterConfig{Backend: BackendAPI}, clustererr.ErrValidation},
		{"api with defaults", ClusterConfig{Name: "a", Backend: BackendAPI}, nil},
		{"ssh without block", ClusterConfig{Name: "a", Backend: BackendShell}, clustererr.ErrConfiguration},
		{"ssh without secret", ClusterConfig{Name: "a", Backend: BackendShell, SSH: &SSHConfig{Hostname: "h", Username: "u"}}, clustererr.ErrConfiguration},
		{"ssh with key", ClusterConfig{Name: "a", Backend: BackendShell, SSH: &SSHConfig{Hostname: "h", Username: "u", KeyPath: "/id"}}, nil},
		{"unknown backend", ClusterConfig{Name: "a", Backend: "docker"}, clustererr.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRedacted(t *testing.T) {
	c := ClusterConfig{
		Name: "a",
		SSH:  &SSHConfig{Hostname: "h", Password: "pw"},
		Kube: &KubeConfig{Inline: "apiVersion: v1"},
	}
	r := c.Redacted()
	assert.Equal(t, "******", r.SSH.Password)
	assert.Equal(t, "******", r.Kube.Inline)
	assert.Equal(t, "pw", c.SSH.Password)
}
