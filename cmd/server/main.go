package main

import (
	"os"

	"github.com/mmynk/splitease/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
