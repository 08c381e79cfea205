package main

import (
	"os"

	"stepline/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
