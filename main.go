package main

import (
	"os"

	"github.com/PolarWolf314/backpack/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
