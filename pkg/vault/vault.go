// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
)

const (
	KeySize = 32 // AES-256
	// Prefix marks encrypted values. Values without it are plaintext.
	Prefix = "ENC:"
	// KeyringService is the OS keyring service name used when the keyring source is enabled.
	KeyringService = "k8s-dashboard"
)

// Vault encrypts and decrypts short secrets with a symmetric key kept in a
// key file (and optionally the OS keyring). The key is created on first use.
type Vault struct {
	keyFile string
	keyring keyringProvider
	log     *zap.SugaredLogger

	mu  sync.Mutex
	key []byte
}

type Option func(*Vault)

// WithKeyring stores and looks up the key in the OS keyring before the key file.
func WithKeyring() Option {
	return func(v *Vault) { v.keyring = osKeyring{} }
}

func withKeyringProvider(p keyringProvider) Option {
	return func(v *Vault) { v.keyring = p }
}

// WithKey uses a fixed key instead of the key file.
func WithKey(key []byte) Option {
	return func(v *Vault) { v.key = append([]byte(nil), key...) }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(v *Vault) { v.log = log }
}

func New(keyFile string, opts ...Option) *Vault {
	v := &Vault{keyFile: keyFile, log: zap.NewNop().Sugar()}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Encrypt returns Prefix followed by base64(nonce || ciphertext). The empty
// string encrypts to the empty string. A value that already carries Prefix
// is returned unchanged, so ciphertext kept after a failed decrypt is
// written back as is.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" || IsEncrypted(plaintext) {
		return plaintext, nil
	}
	key, err := v.loadKey()
	if err != nil {
		return "", err
	}
	return encryptValue(key, plaintext)
}

// Decrypt returns the plaintext of an encrypted value. Empty and unprefixed
// values are returned unchanged. When the value cannot be decrypted the
// original string is returned together with a Decryption error.
func (v *Vault) Decrypt(value string) (string, error) {
	if value == "" || !strings.HasPrefix(value, Prefix) {
		return value, nil
	}
	key, err := v.loadKey()
	if err != nil {
		return value, clustererr.Decryption(err)
	}
	plain, err := decryptValue(key, value)
	if err != nil {
		return value, clustererr.Decryption(err)
	}
	return plain, nil
}

// IsEncrypted reports whether value carries the Prefix marker.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

func (v *Vault) loadKey() ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.key != nil {
		return v.key, nil
	}

	user := filepath.Base(v.keyFile)
	if v.keyring != nil {
		if encoded, err := v.keyring.Get(KeyringService, user); err == nil {
			if key, derr := parseKey([]byte(encoded)); derr == nil {
				v.key = key
				return key, nil
			}
			v.log.Warnw("Ignoring malformed key in OS keyring", "service", KeyringService, "user", user)
		}
	}

	key, err := LoadKey(v.keyFile)
	if err != nil {
		return nil, err
	}
	if key == nil {
		if key, err = CreateKey(v.keyFile); err != nil {
			return nil, err
		}
		v.log.Infow("Created vault key", "path", v.keyFile)
	}

	if v.keyring != nil {
		if err := v.keyring.Set(KeyringService, user, base64.StdEncoding.EncodeToString(key)); err != nil {
			v.log.Warnw("Storing vault key in OS keyring failed, using key file only", "error", err)
		}
	}
	v.key = key
	return key, nil
}

// LoadKey reads the key at keyPath. It returns nil, nil when the file does
// not exist. The file holds either 32 raw bytes or their base64 encoding.
func LoadKey(keyPath string) ([]byte, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("vault: read key: %w", err)
	}
	key, err := parseKey(data)
	if err != nil {
		return nil, fmt.Errorf("vault: key at %s: %w", keyPath, err)
	}
	return key, nil
}

func parseKey(data []byte) ([]byte, error) {
	if len(data) == KeySize {
		return data, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data)))
	if err == nil && len(decoded) == KeySize {
		return decoded, nil
	}
	return nil, fmt.Errorf("invalid key size %d (expected %d raw or base64 bytes)", len(data), KeySize)
}

// CreateKey generates a key and publishes it at keyPath with a temp file and
// a hard link, so keyPath never holds a partial key. If another process
// created keyPath first, its key is returned instead.
func CreateKey(keyPath string) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("vault: generate key: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(keyPath), ".crypto.key.tmp.*")
	if err != nil {
		return nil, fmt.Errorf("vault: create key temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(key); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("vault: write key temp: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("vault: chmod key temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("vault: close key temp: %w", err)
	}

	if err := os.Link(tmpPath, keyPath); err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("vault: link key: %w", err)
		}
		winner, loadErr := LoadKey(keyPath)
		if loadErr != nil {
			return nil, loadErr
		}
		if winner == nil {
			return nil, fmt.Errorf("vault: key %s disappeared after concurrent creation", keyPath)
		}
		return winner, nil
	}
	return key, nil
}

func encryptValue(key []byte, plaintext string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("vault: nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func decryptValue(key []byte, value string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	n := gcm.NonceSize()
	if len(data) < n {
		return "", errors.New("ciphertext too short")
	}
	plain, err := gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
