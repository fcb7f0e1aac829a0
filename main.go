package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cjungmann/ate/cmd"
	"github.com/cjungmann/ate/pkg/interp"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exit *interp.ExitError
		if !errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cmd.ExitCode(err))
	}
}
