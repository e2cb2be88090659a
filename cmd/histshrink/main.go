package main

import (
	"os"

	"github.com/dshills/histshrink/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
