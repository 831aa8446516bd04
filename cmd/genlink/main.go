package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/genlink/pkg/output"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, output.RenderError(err))
		os.Exit(1)
	}
}
