package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roasbeef/actorlab/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Printf("actorlab version %s commit=%s go=%s\n",
		build.Version(), build.Commit(), build.GoVersion)

	return nil
}
