package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
)

// BackendKind selects how a cluster is reached.
type BackendKind string

const (
	// BackendShell runs kubectl on a remote host over SSH.
	BackendShell BackendKind = "shell"
	// BackendAPI talks to the Kubernetes API server directly.
	BackendAPI BackendKind = "api"
)

// ParseBackendKind accepts both the registry spelling (SSH, KUBE) and the
// canonical one. Empty defaults to the shell backend.
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ssh", "shell":
		return BackendShell, nil
	case "kube", "api":
		return BackendAPI, nil
	default:
		return "", clustererr.Configuration(nil, "unknown cluster backend %q", s)
	}
}

// RegistryName is the spelling stored in the registry file.
func (k BackendKind) RegistryName() string {
	if k == BackendAPI {
		return "KUBE"
	}
	return "SSH"
}

func (k *BackendKind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	// unknown values are kept so the facade can report them per cluster
	parsed, err := ParseBackendKind(s)
	if err != nil {
		*k = BackendKind(s)
		return nil
	}
	*k = parsed
	return nil
}

func (k BackendKind) MarshalYAML() (interface{}, error) {
	return k.RegistryName(), nil
}

func (k *BackendKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseBackendKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k BackendKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.RegistryName())
}

// SSHConfig describes the jump host that runs kubectl.
type SSHConfig struct {
	Hostname string `yaml:"hostname" json:"hostname"`
	Port     int    `yaml:"port,omitempty" json:"port,omitempty"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty" json:"key_path,omitempty"`
}

// Address is hostname:port with port defaulting to 22.
func (s SSHConfig) Address() string {
	port := s.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", s.Hostname, port)
}

// KubeConfig selects client credentials for the API backend. In the registry
// file it is either a path string or a mapping; a mapping that is itself a
// kubeconfig document is kept inline.
type KubeConfig struct {
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	Context string `yaml:"context,omitempty" json:"context,omitempty"`
	Inline  string `yaml:"inline,omitempty" json:"inline,omitempty"`
}

func (k KubeConfig) IsZero() bool {
	return k.Path == "" && k.Context == "" && k.Inline == ""
}

func (k *KubeConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var path string
	if err := unmarshal(&path); err == nil {
		*k = KubeConfig{Path: path}
		return nil
	}
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return k.fromMap(raw, func(v map[string]interface{}) ([]byte, error) { return yaml.Marshal(v) })
}

func (k KubeConfig) MarshalYAML() (interface{}, error) {
	if k.Context == "" && k.Inline == "" {
		return k.Path, nil
	}
	type plain KubeConfig
	return plain(k), nil
}

func (k *KubeConfig) UnmarshalJSON(b []byte) error {
	var path string
	if err := json.Unmarshal(b, &path); err == nil {
		*k = KubeConfig{Path: path}
		return nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return k.fromMap(raw, func(v map[string]interface{}) ([]byte, error) { return json.Marshal(v) })
}

func (k *KubeConfig) fromMap(raw map[string]interface{}, encode func(map[string]interface{}) ([]byte, error)) error {
	if _, ok := raw["clusters"]; ok {
		b, err := encode(raw)
		if err != nil {
			return err
		}
		*k = KubeConfig{Inline: string(b)}
		return nil
	}
	*k = KubeConfig{
		Path:    stringField(raw, "path"),
		Context: stringField(raw, "context"),
		Inline:  stringField(raw, "inline"),
	}
	return nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// ClusterConfig is one registry entry.
type ClusterConfig struct {
	// ID is the registry key. It is not stored inside the entry.
	ID        string      `yaml:"-" json:"id"`
	Name      string      `yaml:"name" json:"name"`
	Namespace string      `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Backend   BackendKind `yaml:"k8s_controller" json:"k8s_controller"`
	SSH       *SSHConfig  `yaml:"ssh_config,omitempty" json:"ssh_config,omitempty"`
	Kube      *KubeConfig `yaml:"kube_config,omitempty" json:"kube_config,omitempty"`
}

// DefaultNamespace falls back to "default".
func (c ClusterConfig) DefaultNamespace() string {
	if c.Namespace == "" {
		return "default"
	}
	return c.Namespace
}

// Validate checks the fields the selected backend needs.
func (c ClusterConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return clustererr.Required("name")
	}
	kind, err := ParseBackendKind(string(c.Backend))
	if err != nil {
		return err
	}
	switch kind {
	case BackendShell:
		if c.SSH == nil {
			return clustererr.Configuration(nil, "cluster %q: ssh_config is required for the SSH backend", c.Name)
		}
		if c.SSH.Hostname == "" || c.SSH.Username == "" {
			return clustererr.Configuration(nil, "cluster %q: ssh_config needs hostname and username", c.Name)
		}
		if c.SSH.Password == "" && c.SSH.KeyPath == "" {
			return clustererr.Configuration(nil, "cluster %q: ssh_config needs password or key_path", c.Name)
		}
	case BackendAPI:
		// an empty kube_config means the default loading rules
	}
	return nil
}

// Masked replaces secrets in API responses. Updates carrying it keep the
// stored secret.
const Masked = "******"

// Redacted returns a copy with secrets blanked, for API responses.
func (c ClusterConfig) Redacted() ClusterConfig {
	out := c
	if c.SSH != nil {
		ssh := *c.SSH
		if ssh.Password != "" {
			ssh.Password = Masked
		}
		out.SSH = &ssh
	}
	if c.Kube != nil && c.Kube.Inline != "" {
		kube := *c.Kube
		kube.Inline = Masked
		out.Kube = &kube
	}
	return out
}
