package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orbitlytics/neocollector/internal/cmd/collector"
)

func NewRootCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "neocollector",
		Short: "Collects NASA near earth object data into Postgres",
	}

	cmd.AddCommand(collector.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
