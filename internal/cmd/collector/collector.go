package collector

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "collector",
		Short: "Manages the collection of near earth object data",
	}
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newCollectCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newSnapshotCommand())
	return cmd
}
