package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultPath is used when neither --config nor DASHBOARD_CONFIG_PATH is given.
const DefaultPath = "./config.yaml"

type Server struct {
	ListenAddress string `yaml:"listenAddress"`
	TLSCertFile   string `yaml:"tlsCertFile"`
	TLSKeyFile    string `yaml:"tlsKeyFile"`
	// StaticDir is the built frontend served for non-API routes. Empty disables it.
	StaticDir string `yaml:"staticDir"`
	// AllowOrigins enables CORS for the listed origins (e.g. the frontend dev server).
	AllowOrigins []string `yaml:"allowOrigins"`
	// RateLimit is the per-client request rate (req/s). Zero disables limiting.
	RateLimit float64 `yaml:"rateLimit"`
	RateBurst int     `yaml:"rateBurst"`
}

type Registry struct {
	// Path of the cluster registry file.
	Path string `yaml:"path"`
}

type Vault struct {
	// KeyFile holds the AES key protecting secrets in the registry file.
	KeyFile string `yaml:"keyFile"`
	// Keyring stores the key in the OS keyring instead of (or in addition to) KeyFile.
	Keyring bool `yaml:"keyring"`
}

type Shell struct {
	KubectlPath string `yaml:"kubectlPath"`
	// KnownHostsPath enables host key verification. Empty accepts any host key.
	KnownHostsPath string `yaml:"knownHostsPath"`
	DialTimeout    string `yaml:"dialTimeout"`
	ProbeCommand   string `yaml:"probeCommand"`
	// ProbeTimeout bounds the liveness probe. A probe that times out counts
	// as an inactive session.
	ProbeTimeout string `yaml:"probeTimeout"`
	ScratchDir     string `yaml:"scratchDir"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	// TLSCAFile enables TLS against the brokers, verified with this CA bundle.
	TLSCAFile string `yaml:"tlsCAFile"`
	// SASLMechanism is PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512.
	SASLMechanism string `yaml:"saslMechanism"`
	SASLUsername  string `yaml:"saslUsername"`
	SASLPassword  string `yaml:"saslPassword"`
}

type Audit struct {
	Enabled bool   `yaml:"enabled"`
	Kafka   *Kafka `yaml:"kafka"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Registry Registry `yaml:"registry"`
	Vault    Vault    `yaml:"vault"`
	Shell    Shell    `yaml:"shell"`
	Audit    Audit    `yaml:"audit"`
}

// Load reads the dashboard configuration from path. An empty path resolves
// DASHBOARD_CONFIG_PATH, then DefaultPath. A missing file at the implicit
// default location yields the defaults rather than an error.
func Load(path string) (Config, error) {
	implicit := false
	if path == "" {
		path = os.Getenv("DASHBOARD_CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
		implicit = true
	}

	var cfg Config
	content, err := os.ReadFile(path)
	if err != nil {
		if implicit && os.IsNotExist(err) {
			cfg.Defaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("trying to open dashboard config file %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(content, &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
	}
	cfg.Defaults()
	return cfg, nil
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":5000"
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		c.Server.RateBurst = int(c.Server.RateLimit) * 2
	}
	if c.Registry.Path == "" {
		c.Registry.Path = ".clusters.yaml"
	}
	if c.Vault.KeyFile == "" {
		c.Vault.KeyFile = ".crypto.key"
	}
	if c.Shell.KubectlPath == "" {
		c.Shell.KubectlPath = "kubectl"
	}
	if c.Shell.DialTimeout == "" {
		c.Shell.DialTimeout = "10s"
	}
	if c.Shell.ProbeCommand == "" {
		c.Shell.ProbeCommand = "echo ok"
	}
	if c.Shell.ProbeTimeout == "" {
		c.Shell.ProbeTimeout = "5s"
	}
	if c.Shell.ScratchDir == "" {
		c.Shell.ScratchDir = "/tmp"
	}
}

// ProbeTimeoutDuration parses Shell.ProbeTimeout, falling back to 5s.
func (s Shell) ProbeTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.ProbeTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// DialTimeoutDuration parses Shell.DialTimeout, falling back to 10s.
func (s Shell) DialTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.DialTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
