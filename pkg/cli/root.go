package cli

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telekom/k8s-dashboard/pkg/config"
)

type Options struct {
	ConfigPath   string
	OutputWriter io.Writer
}

type runtimeState struct {
	configPath string
	debug      bool
	cfg        config.Config
	writer     io.Writer
}

type runtimeKey struct{}

func DefaultOptions() Options {
	return Options{OutputWriter: os.Stdout}
}

func NewRootCommand(opts Options) *cobra.Command {
	rt := &runtimeState{configPath: opts.ConfigPath, writer: opts.OutputWriter}

	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Multi-cluster Kubernetes dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = cmd.OutOrStdout()
			}
			if !rt.debug {
				rt.debug = getEnvBool("DASHBOARD_DEBUG", false)
			}
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(rt.configPath)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file (default $DASHBOARD_CONFIG_PATH or "+config.DefaultPath+")")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "Enable debug level logging")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewServeCommand(),
		NewEncryptConfigCommand(),
		NewShowConfigCommand(),
		NewVersionCommand(),
	)
	return root
}

func getRuntime(cmd *cobra.Command) *runtimeState {
	if rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState); ok {
		return rt
	}
	return &runtimeState{writer: cmd.OutOrStdout()}
}

func getEnvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes":
		return true
	case "no":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
