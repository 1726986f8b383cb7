package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func WriteObject(w io.Writer, format Format, obj any) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		data, err := yaml.Marshal(obj)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, string(data))
		return err
	case FormatTable:
		return fmt.Errorf("table format requires a specific formatter")
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeClusters(w io.Writer, format Format, rows []ClusterRow) error {
	if format != FormatTable && format != "" {
		return WriteObject(w, format, rows)
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tBACKEND\tNAMESPACE\tHOST\tUSER\tPASSWORD\tKUBECONFIG\tERROR")
	for _, r := range rows {
		host, user, password, kube := "-", "-", "-", "-"
		if r.SSH != nil {
			host, user = r.SSH.Address(), r.SSH.Username
			if r.SSH.Password != "" {
				password = r.SSH.Password
			}
		}
		if r.Kube != nil {
			switch {
			case r.Kube.Inline != "":
				kube = "<inline>"
			case r.Kube.Path != "":
				kube = r.Kube.Path
			}
			if r.Kube.Context != "" {
				kube += "@" + r.Kube.Context
			}
		}
		errText := "-"
		if r.Error != "" {
			errText = r.Error
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Backend.RegistryName(), r.DefaultNamespace(), host, user, password, kube, errText)
	}
	return tw.Flush()
}
