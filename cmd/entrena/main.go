package main

import (
	"fmt"
	"os"

	"github.com/me/entrena/internal/cli"
)

func main() {
	err := cli.NewRootCmd().Execute()
	cli.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}
