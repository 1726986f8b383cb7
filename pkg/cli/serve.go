package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/api"
	"github.com/telekom/k8s-dashboard/pkg/audit"
	"github.com/telekom/k8s-dashboard/pkg/cluster"
	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/shell"
	"github.com/telekom/k8s-dashboard/pkg/vault"
	"github.com/telekom/k8s-dashboard/pkg/version"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API and frontend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := getRuntime(cmd)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rt)
		},
	}
}

func serve(ctx context.Context, rt *runtimeState) error {
	zl, err := setupLogger(rt.debug)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar()
	log.With("version", version.Version).Info("Starting dashboard")

	cfg := rt.cfg
	auditMgr, err := audit.NewManagerFromConfig(cfg.Audit, zl)
	if err != nil {
		return fmt.Errorf("setting up audit: %w", err)
	}
	defer func() {
		if err := auditMgr.Close(); err != nil {
			log.Warnw("Closing audit sinks failed", "error", err)
		}
	}()

	registry := cluster.NewRegistry(newStore(cfg, log),
		cluster.WithRegistryLogger(log),
		cluster.WithRegistryAudit(auditMgr),
		cluster.WithClientOptions(
			cluster.WithLogger(log),
			cluster.WithAudit(auditMgr),
			cluster.WithShellOptions(shell.OptionsFromConfig(cfg.Shell)...),
		),
	)
	if err := registry.Load(ctx); err != nil {
		return fmt.Errorf("loading cluster registry: %w", err)
	}
	defer func() { _ = registry.Close() }()

	server := api.NewServer(zl, cfg, rt.debug)
	if err := server.RegisterAll([]api.APIController{
		api.NewClusterController(log, registry),
		api.NewResourceController(log, registry),
	}); err != nil {
		return fmt.Errorf("registering controllers: %w", err)
	}
	return server.Listen(ctx)
}

func newVault(cfg config.Vault, log *zap.SugaredLogger) *vault.Vault {
	opts := []vault.Option{vault.WithLogger(log)}
	if cfg.Keyring {
		opts = append(opts, vault.WithKeyring())
	}
	return vault.New(cfg.KeyFile, opts...)
}

func newStore(cfg config.Config, log *zap.SugaredLogger) *config.Store {
	return config.NewStore(cfg.Registry.Path, newVault(cfg.Vault, log))
}
