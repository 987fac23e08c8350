package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (%s, revision %s)\n", app, version, runtime.Version(), revision())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// revision returns the vcs revision stamped by the go tool, if any.
func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return "unknown"
}
