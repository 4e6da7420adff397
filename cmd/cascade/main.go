package main

import (
	"os"

	"github.com/cascade-data/cascade/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
