// stop.go implements the "craftctl stop" command.
//
// Stop gracefully shuts the server container down without removing it.
// World data and the container itself are preserved, so "craftctl start"
// brings the server back with the same state. A paused container is
// unpaused first: a frozen process never receives the stop signal, and
// the server must get the chance to save its worlds.
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

// NewStopCommand creates the "stop" cobra command.
func NewStopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the configured server",
		Long: `Gracefully stop the Minecraft server container.

The container is stopped but not removed: worlds, plugins, and server
configuration are preserved, and the server can be brought back with
"craftctl start". The server process gets the configured stop timeout
to save its worlds before Docker kills it.

Examples:
  craftctl stop
  craftctl stop --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd.Context())
		},
	}

	return cmd
}

// runStop is the main logic function for the stop command.
func runStop(ctx context.Context) error {
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
	VerboseLog("Connected to Docker daemon")

	info, err := findServer(ctx, cli, cfg.Server.Name)
	if err != nil {
		return err
	}
	VerboseLog("Server %q is %s", cfg.Server.Name, info.State)

	switch info.State {
	case model.StateAbsent:
		return model.NewCLIError(model.ExitServerNotFound,
			fmt.Sprintf("server %q does not exist — nothing to stop", cfg.Server.Name))

	case model.StateExited:
		// Stopping a stopped server is a no-op, not an error.
		printStopResult(cfg.Server.Name, false)
		return nil

	case model.StatePaused:
		// A paused process cannot handle SIGTERM; unpause first so the
		// server saves its worlds during the graceful window.
		VerboseLog("Unpausing container %s before stop...", shortID(info.ContainerID))
		if err := docker.UnpauseContainer(ctx, cli, info.ContainerID); err != nil {
			return err
		}
	}

	VerboseLog("Stopping container %s (timeout %ds)...", shortID(info.ContainerID), cfg.Server.StopTimeoutSeconds)
	if err := docker.StopContainer(ctx, cli, info.ContainerID, cfg.Server.StopTimeoutSeconds); err != nil {
		return err
	}

	printStopResult(cfg.Server.Name, true)
	return nil
}

// printStopResult outputs the stop command result in text or JSON format.
func printStopResult(name string, stopped bool) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"name":   name,
			"action": "stopped",
		}
		if !stopped {
			result["action"] = "none"
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if stopped {
		fmt.Printf("Stopped server %q\n", name)
	} else {
		fmt.Printf("Server %q is already stopped\n", name)
	}
}
