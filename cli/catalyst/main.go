package main

import (
	"os"

	catalystcmder "github.com/papercomputeco/catalyst/cmd/catalyst"
)

func main() {
	cmd := catalystcmder.NewCatalystCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
