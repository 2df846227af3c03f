// restart.go implements the "craftctl restart" command.
//
// Restart is stop followed by start on an existing container. It does
// not run the worlds/plugins sync steps unless --sync is given, so a
// plain restart is fast and touches nothing on disk.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/craftctl/internal/config"
	"github.com/mmr-tortoise/craftctl/internal/docker"
	"github.com/mmr-tortoise/craftctl/internal/model"
	"github.com/mmr-tortoise/craftctl/internal/plugins"
)

// restartFlags holds the flag values for the restart command.
type restartFlags struct {
	// sync re-runs the plugin sync before starting again, picking up
	// rebuilt plugin jars without a separate start invocation.
	sync bool
}

// NewRestartCommand creates the "restart" cobra command.
func NewRestartCommand() *cobra.Command {
	flags := &restartFlags{}

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the configured server",
		Long: `Stop the Minecraft server container and start it again.

The container must already exist; restarting an absent server is an
error (use "craftctl start" to create it). With --sync, the plugin
tree is re-synced into the data directory between stop and start.

Examples:
  craftctl restart
  craftctl restart --sync`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestart(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.sync, "sync", false, "Re-sync the plugin tree before starting again")

	return cmd
}

// runRestart is the main logic function for the restart command.
func runRestart(ctx context.Context, flags *restartFlags) error {
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
	VerboseLog("Server %q is %s", cfg.Server.Name, info.State)

	if info.State == model.StateAbsent {
		return model.NewCLIError(model.ExitServerNotFound,
			fmt.Sprintf("server %q does not exist — use \"craftctl start\" to create it", cfg.Server.Name))
	}

	// Paused containers must thaw before the stop signal can land.
	if info.State == model.StatePaused {
		if err := docker.UnpauseContainer(ctx, cli, info.ContainerID); err != nil {
			return err
		}
	}

	if info.State != model.StateExited {
		VerboseLog("Stopping container %s...", shortID(info.ContainerID))
		if err := docker.StopContainer(ctx, cli, info.ContainerID, cfg.Server.StopTimeoutSeconds); err != nil {
			return err
		}
	}

	if flags.sync {
		copied, err := plugins.Sync(cfg.Plugins.Source, cfg.PluginsDir())
		if err != nil {
			return err
		}
		VerboseLog("Copied %d plugin file(s)", copied)
	}

	VerboseLog("Starting container %s...", shortID(info.ContainerID))
	if err := docker.StartContainer(ctx, cli, info.ContainerID); err != nil {
		suggestRetry()
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{
			"name":   cfg.Server.Name,
			"action": "restarted",
		}, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Restarted server %q\n", cfg.Server.Name)
	}
	return nil
}
