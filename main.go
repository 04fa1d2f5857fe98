package main

import (
	"os"

	"github.com/asaidimu/go-odata/cli"
)

func main() {
	os.Exit(cli.Execute())
}
