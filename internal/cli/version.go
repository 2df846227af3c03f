// version.go implements the "craftctl version" subcommand.
//
// The root command already answers --version; the subcommand exists for
// muscle memory ("craftctl version") and for machine-readable output
// with --json.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the "version" cobra command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show craftctl version information",

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			if IsJSONOutput() {
				data, _ := json.MarshalIndent(map[string]string{
					"version": Version,
					"commit":  Commit,
					"date":    Date,
				}, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("craftctl %s (commit: %s, built: %s)\n", Version, Commit, Date)
			return nil
		},
	}
}
