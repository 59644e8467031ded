// mgfprep - MGF charge-state normalizer for de novo sequencing input
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/mgfprep/cmd/mgfprep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
