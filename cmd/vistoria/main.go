// vistoria - Technical inspection of electrical installations
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/vistoria

package main

import (
	"os"

	"github.com/ariel-frischer/vistoria/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
