package main

import (
	"os"

	"github.com/FoadGhasemi/CodeSpark/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
