package main

import (
	"os"

	"github.com/mfouesneau/gh-app/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
