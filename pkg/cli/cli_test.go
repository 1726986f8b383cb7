package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/version"
)

const plainRegistry = `clusters:
  dev:
    name: dev
    namespace: shop
    k8s_controller: SSH
    ssh_config:
      hostname: jump.example.com
      username: ops
      password: s3cret
  lab:
    name: lab
    k8s_controller: KUBE
    kube_config:
      path: /etc/kube/lab.yaml
      context: lab-admin
`

// writeEnv lays out a config file, registry file and key path in a temp dir
// and returns the config path and the registry path.
func writeEnv(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	registry := filepath.Join(dir, ".clusters.yaml")
	require.NoError(t, os.WriteFile(registry, []byte(plainRegistry), 0o600))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "registry:\n  path: " + registry + "\nvault:\n  keyFile: " + filepath.Join(dir, ".crypto.key") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath, registry
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(Options{ConfigPath: cfgPath, OutputWriter: &out})
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		def   bool
		want  bool
	}{
		{name: "unset uses default", value: nil, def: true, want: true},
		{name: "true", value: ptr("true"), want: true},
		{name: "1", value: ptr("1"), want: true},
		{name: "yes", value: ptr("YES"), want: true},
		{name: "no", value: ptr("no"), def: true, want: false},
		{name: "garbage uses default", value: ptr("maybe"), def: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != nil {
				t.Setenv("DASHBOARD_TEST_BOOL", *tt.value)
			} else {
				_ = os.Unsetenv("DASHBOARD_TEST_BOOL")
			}
			assert.Equal(t, tt.want, getEnvBool("DASHBOARD_TEST_BOOL", tt.def))
		})
	}
}

func ptr(s string) *string { return &s }

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "/does/not/exist.yaml", "version")
	require.NoError(t, err, "version must not need a config file")
	assert.Contains(t, out, "dashboard "+version.Version)

	out, err = run(t, "/does/not/exist.yaml", "version", "-o", "json")
	require.NoError(t, err)
	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "missing.yaml"), "show-config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestShowConfigMasksSecrets(t *testing.T) {
	cfgPath, _ := writeEnv(t)

	out, err := run(t, cfgPath, "show-config")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "jump.example.com:22")
	assert.Contains(t, out, config.Masked)
	assert.Contains(t, out, "/etc/kube/lab.yaml@lab-admin")
	assert.NotContains(t, out, "s3cret")

	out, err = run(t, cfgPath, "show-config", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "s3cret")
}

func TestShowConfigJSON(t *testing.T) {
	cfgPath, _ := writeEnv(t)

	out, err := run(t, cfgPath, "show-config", "-o", "json")
	require.NoError(t, err)
	var rows []ClusterRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "dev", rows[0].ID)
	assert.Equal(t, config.BackendShell, rows[0].Backend)
	assert.Equal(t, config.Masked, rows[0].SSH.Password)
	assert.Equal(t, "lab", rows[1].ID)
	assert.Equal(t, config.BackendAPI, rows[1].Backend)
}

func TestShowConfigYAMLKeepsID(t *testing.T) {
	cfgPath, _ := writeEnv(t)

	out, err := run(t, cfgPath, "show-config", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: dev")
	assert.Contains(t, out, "k8s_controller: SSH")
}

func TestShowConfigUnknownFormat(t *testing.T) {
	cfgPath, _ := writeEnv(t)
	_, err := run(t, cfgPath, "show-config", "-o", "xml")
	assert.Error(t, err)
}

func TestEncryptConfig(t *testing.T) {
	cfgPath, registry := writeEnv(t)

	out, err := run(t, cfgPath, "encrypt-config")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup written to "+registry+".bak")
	assert.Contains(t, out, "Encrypted secrets of 2 clusters")

	backup, err := os.ReadFile(registry + ".bak")
	require.NoError(t, err)
	assert.Equal(t, plainRegistry, string(backup))

	raw, err := os.ReadFile(registry)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3cret")
	assert.Contains(t, string(raw), "password: ENC:")

	// the key written on first use decrypts the file again
	out, err = run(t, cfgPath, "show-config", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "s3cret")
}

func TestEncryptConfigNoBackup(t *testing.T) {
	cfgPath, registry := writeEnv(t)

	_, err := run(t, cfgPath, "encrypt-config", "--no-backup")
	require.NoError(t, err)
	assert.NoFileExists(t, registry+".bak")
}

func TestBackupFileMissingSource(t *testing.T) {
	backup, err := backupFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, backup)
}

func TestSetupLogger(t *testing.T) {
	for _, debug := range []bool{false, true} {
		logger, err := setupLogger(debug)
		require.NoError(t, err)
		assert.Equal(t, debug, logger.Core().Enabled(-1))
	}
}
