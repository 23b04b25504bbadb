// codechecker stores analysis statistics for analyzer runs and tracks
// which source files failed analysis, per product, across runs.
package main

import (
	"os"

	"github.com/ZiperRom1/codechecker/cmd/codechecker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
