package main

import (
	"os"

	"github.com/spf13/cobra"
)

// @title ONE OS API
// @version 1.0
// @description Agency dashboard backend: clients, growth health scores, production pipeline and EOS scorecard.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "oneos",
	Short:        "ONE OS agency dashboard backend",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, scoreCmd, loadtestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
