package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/k8s-dashboard/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show dashboard version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()
			writer := getRuntime(cmd).writer
			if writer == nil {
				writer = cmd.OutOrStdout()
			}
			if outputFormat != "" {
				return WriteObject(writer, Format(outputFormat), info)
			}
			_, _ = fmt.Fprintln(writer, info.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, yaml")
	return cmd
}
