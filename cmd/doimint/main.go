package main

import (
	"os"

	"github.com/marineinst/doimint/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
