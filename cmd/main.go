package main

import (
	"fmt"
	"os"

	"english-practice-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "practice-service:", err)
		os.Exit(1)
	}
}
