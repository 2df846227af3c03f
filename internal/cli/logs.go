// logs.go implements the "craftctl logs" command.
//
// Logs streams the server console output from the container. With
// --follow the stream stays open until interrupted, which is the usual
// way to watch the server finish booting after "craftctl start".
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/craftctl/internal/config"
	"github.com/mmr-tortoise/craftctl/internal/docker"
	"github.com/mmr-tortoise/craftctl/internal/model"
)

// logsFlags holds the flag values for the logs command.
type logsFlags struct {
	// follow keeps the stream open for new output.
	follow bool

	// tail limits output to the last N lines ("all" for everything).
	tail string
}

// NewLogsCommand creates the "logs" cobra command.
func NewLogsCommand() *cobra.Command {
	flags := &logsFlags{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the server console output",
		Long: `Print the Minecraft server console output from the container.

Examples:
  craftctl logs
  craftctl logs --follow
  craftctl logs --tail 50`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.follow, "follow", "f", false, "Follow the log output")
	cmd.Flags().StringVar(&flags.tail, "tail", "all", "Number of lines to show from the end of the logs")

	return cmd
}

// runLogs is the main logic function for the logs command.
func runLogs(ctx context.Context, flags *logsFlags) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	info, err := findServer(ctx, cli, cfg.Server.Name)
	if err != nil {
		return err
	}

	if info.State == model.StateAbsent {
		return model.NewCLIError(model.ExitServerNotFound,
			fmt.Sprintf("server %q does not exist", cfg.Server.Name))
	}

	// Log output goes straight to the terminal; --json has no sensible
	// meaning for a raw console stream.
	return docker.StreamLogs(ctx, cli, info.ContainerID, flags.follow, flags.tail, os.Stdout, os.Stderr)
}
