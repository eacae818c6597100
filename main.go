package main

import (
	"os"

	"github.com/roach88/tensorjit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
