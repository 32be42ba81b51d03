// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/notariaproj/notaria-mcp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
