package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aezell/codemint/internal/cli"
)

func main() {
	err := cli.Execute()
	if err != nil {
		var ee *cli.ExitError
		if !errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(cli.ExitCode(err))
}
