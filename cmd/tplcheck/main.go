package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-tplcheck/cmd/tplcheck/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, commands.ErrChecksFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
