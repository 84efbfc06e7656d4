package main

import (
	"os"

	"github.com/gridcal/pricefit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
