package main

import (
	"os"

	"github.com/odyssey-hr/odyssey-hr/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
