// remove.go implements the "craftctl remove" command.
//
// Remove deletes the server container. The data directory on the host —
// worlds, plugins, server.properties — is deliberately left untouched:
// a subsequent "craftctl start" recreates the container around the same
// data. A running server is only removed with --force.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/craftctl/internal/config"
	"github.com/mmr-tortoise/craftctl/internal/docker"
	"github.com/mmr-tortoise/craftctl/internal/model"
)

// removeFlags holds the flag values for the remove command.
type removeFlags struct {
	// force removes the container even while it is running.
	force bool
}

// NewRemoveCommand creates the "remove" cobra command.
func NewRemoveCommand() *cobra.Command {
	flags := &removeFlags{}

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the server container",
		Long: `Remove the Minecraft server container.

The data directory (worlds, plugins, server configuration) is preserved
on the host; only the container is deleted. A running server is refused
unless --force is given.

Examples:
  craftctl remove
  craftctl remove --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.force, "force", false, "Remove the container even if it is running")

	return cmd
}

// runRemove is the main logic function for the remove command.
func runRemove(ctx context.Context, flags *removeFlags) error {
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

	if info.State == model.StateRunning && !flags.force {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("server %q is running — stop it first or pass --force", cfg.Server.Name))
	}

	VerboseLog("Removing container %s...", shortID(info.ContainerID))
	if err := docker.RemoveContainer(ctx, cli, info.ContainerID, flags.force); err != nil {
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{
			"name":   cfg.Server.Name,
			"action": "removed",
		}, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Removed server %q (data directory preserved at %s)\n", cfg.Server.Name, cfg.DataDir)
	}
	return nil
}
