// Operator CLI for ComplianceSentinel.
package main

import (
	"os"

	"github.com/turtacn/ComplianceSentinel/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
