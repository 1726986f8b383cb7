package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"
)

// SecretCodec protects secret fields in the registry file.
type SecretCodec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(value string) (string, error)
}

type registryFile struct {
	Clusters map[string]ClusterConfig `yaml:"clusters"`
}

// Store reads and writes the cluster registry file. Secrets are decrypted on
// load and encrypted on save; the in-memory configs always hold plaintext.
type Store struct {
	path  string
	codec SecretCodec
	mu    sync.Mutex
}

func NewStore(path string, codec SecretCodec) *Store {
	return &Store{path: path, codec: codec}
}

func (s *Store) Path() string { return s.path }

// Load returns all registry entries sorted by id. A missing file is an empty
// registry. An entry whose secrets cannot be decrypted is returned with the
// stored values and the error is reported in the second result map.
func (s *Store) Load() ([]ClusterConfig, map[string]error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []ClusterConfig{}, map[string]error{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading cluster registry %s: %w", s.path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling YAML %s: %w", s.path, err)
	}

	ids := make([]string, 0, len(file.Clusters))
	for id := range file.Clusters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]ClusterConfig, 0, len(ids))
	failed := map[string]error{}
	for _, id := range ids {
		c := file.Clusters[id]
		c.ID = id
		if err := s.decryptSecrets(&c); err != nil {
			failed[id] = err
		}
		out = append(out, c)
	}
	return out, failed, nil
}

// Save replaces the registry file with configs, encrypting secrets. The file
// is written to a temp file and renamed so readers never see a partial write.
func (s *Store) Save(configs []ClusterConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := registryFile{Clusters: make(map[string]ClusterConfig, len(configs))}
	for _, c := range configs {
		if err := s.encryptSecrets(&c); err != nil {
			return err
		}
		file.Clusters[c.ID] = c
	}

	content, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshaling cluster registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".clusters-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp registry file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp registry file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp registry file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing cluster registry %s: %w", s.path, err)
	}
	return nil
}

// EncryptFile rewrites the registry file with every secret encrypted.
// Already encrypted values are left alone.
func (s *Store) EncryptFile() (int, error) {
	configs, failed, err := s.Load()
	if err != nil {
		return 0, err
	}
	for _, c := range configs {
		if ferr, ok := failed[c.ID]; ok {
			return 0, fmt.Errorf("cluster %s: %w", c.ID, ferr)
		}
	}
	if err := s.Save(configs); err != nil {
		return 0, err
	}
	return len(configs), nil
}

func (s *Store) encryptSecrets(c *ClusterConfig) error {
	if s.codec == nil {
		return nil
	}
	if c.SSH != nil && c.SSH.Password != "" {
		ssh := *c.SSH
		enc, err := s.codec.Encrypt(ssh.Password)
		if err != nil {
			return fmt.Errorf("cluster %s: encrypting ssh password: %w", c.ID, err)
		}
		ssh.Password = enc
		c.SSH = &ssh
	}
	if c.Kube != nil && c.Kube.Inline != "" {
		kube := *c.Kube
		enc, err := s.codec.Encrypt(kube.Inline)
		if err != nil {
			return fmt.Errorf("cluster %s: encrypting inline kubeconfig: %w", c.ID, err)
		}
		kube.Inline = enc
		c.Kube = &kube
	}
	return nil
}

func (s *Store) decryptSecrets(c *ClusterConfig) error {
	if s.codec == nil {
		return nil
	}
	if c.SSH != nil && c.SSH.Password != "" {
		plain, err := s.codec.Decrypt(c.SSH.Password)
		if err != nil {
			return err
		}
		c.SSH.Password = plain
	}
	if c.Kube != nil && c.Kube.Inline != "" {
		plain, err := s.codec.Decrypt(c.Kube.Inline)
		if err != nil {
			return err
		}
		c.Kube.Inline = plain
	}
	return nil
}
