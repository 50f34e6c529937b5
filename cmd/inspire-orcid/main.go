package main

import (
	"context"
	"fmt"
	"os"

	"inspire-orcid/internal/cli"
	"inspire-orcid/pkg/logger"
)

func main() {
	log := logger.NewFromEnv()

	if err := cli.NewRootCommand(log).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
