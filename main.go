package main

import (
	"os"

	"github.com/vmware/transport-docs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
