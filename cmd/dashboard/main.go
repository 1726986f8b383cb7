package main

import (
	"os"

	"github.com/telekom/k8s-dashboard/pkg/cli"
)

func main() {
	root := cli.NewRootCommand(cli.DefaultOptions())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
