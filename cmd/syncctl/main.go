package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"hub-order-sync/internal/cli"
)

func main() {
	_ = godotenv.Load()
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
