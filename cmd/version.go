package cmd

import (
	"fmt"

	"github.com/Layr-Labs/season-points/internal/version"
	"github.com/spf13/cobra"
)

var runVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of season-points",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)

		v := version.GetVersion()
		commit := version.GetCommit()

		fmt.Printf("Version: %s\nCommit: %s\n", v, commit)
	},
}
