// Command reinfect predicts COVID-19 reinfection and explains the risk from
// PubMed literature.
package main

import (
	"os"

	"github.com/custodia-labs/reinfect/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
