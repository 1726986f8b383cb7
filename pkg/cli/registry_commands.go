package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/config"
)

func NewEncryptConfigCommand() *cobra.Command {
	var noBackup bool
	cmd := &cobra.Command{
		Use:   "encrypt-config",
		Short: "Encrypt plaintext secrets in the cluster registry file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := getRuntime(cmd)
			path := rt.cfg.Registry.Path
			if !noBackup {
				backup, err := backupFile(path)
				if err != nil {
					return err
				}
				if backup != "" {
					_, _ = fmt.Fprintf(rt.writer, "Backup written to %s\n", backup)
				}
			}
			n, err := newStore(rt.cfg, zap.NewNop().Sugar()).EncryptFile()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.writer, "Encrypted secrets of %d clusters in %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not keep a .bak copy of the registry file")
	return cmd
}

// backupFile copies path to path.bak. A missing file needs no backup.
func backupFile(path string) (string, error) {
	src, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	backup := path + ".bak"
	dst, err := os.OpenFile(backup, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating backup %s: %w", backup, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("writing backup %s: %w", backup, err)
	}
	return backup, dst.Close()
}

func NewShowConfigCommand() *cobra.Command {
	var (
		reveal       bool
		outputFormat string
	)
	cmd := &cobra.Command{
		Use:   "show-config",
		Short: "Show the clusters in the registry file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := getRuntime(cmd)
			configs, failed, err := newStore(rt.cfg, zap.NewNop().Sugar()).Load()
			if err != nil {
				return err
			}
			rows := make([]ClusterRow, 0, len(configs))
			for _, c := range configs {
				if !reveal {
					c = c.Redacted()
				}
				row := ClusterRow{ID: c.ID, ClusterConfig: c}
				if ferr, ok := failed[c.ID]; ok {
					row.Error = ferr.Error()
				}
				rows = append(rows, row)
			}
			return writeClusters(rt.writer, Format(outputFormat), rows)
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print decrypted secrets instead of masking them")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", string(FormatTable), "Output format: table, json, yaml")
	return cmd
}

// ClusterRow is one show-config entry. ID is repeated here because the
// registry file keys entries by id instead of storing it.
type ClusterRow struct {
	ID                   string `json:"id" yaml:"id"`
	config.ClusterConfig `yaml:",inline"`
	Error                string `json:"error,omitempty" yaml:"error,omitempty"`
}
