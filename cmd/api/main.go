package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	_ "docvault/docs"
)

// @title DocVault API
// @version 1.0
// @description Upload, list, download and delete PDF documents.
// @BasePath /
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "api",
		Short:         "PDF document store with a browser client.",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newReconcileCmd())
	return root
}
