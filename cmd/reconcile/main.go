package main

import (
	"fmt"
	"os"

	"github.com/uGE89/gestion-compras-app-sub000/internal/cli"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/config"
)

func main() {
	flags := cli.ParseReconcileFlags()

	cfg := config.LoadOrEnv()
	if flags.Config != "" {
		cfg = config.LoadOrEnvWithPath(flags.Config)
	}

	if err := cli.RunReconcile(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
