// Package main provides the ehmsctl CLI for operating the EHMS backend.
package main

import (
	"os"

	"github.com/sirosfoundation/go-ehms-backend/cmd/ehmsctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
