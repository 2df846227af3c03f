// start.go implements the "craftctl start" command.
//
// Start is the reconciling command: it brings the declared server to
// running from whatever lifecycle state it is currently in. Before
// touching Docker it makes sure the local state the server depends on
// exists — the worlds directory (downloaded from the configured archive
// URL on first run) and the plugin tree (copied into the data dir).
//
// The recovery action depends on the observed state:
//
//	running → nothing to do
//	paused  → unpause
//	exited  → start the existing container
//	absent  → check the host port, pull the image, create, start
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/craftctl/internal/config"
	"github.com/mmr-tortoise/craftctl/internal/docker"
	"github.com/mmr-tortoise/craftctl/internal/model"
	"github.com/mmr-tortoise/craftctl/internal/plugins"
	"github.com/mmr-tortoise/craftctl/internal/port"
	"github.com/mmr-tortoise/craftctl/internal/worlds"
)

// NewStartCommand creates the "start" cobra command.
func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the configured server",
		Long: `Start the Minecraft server declared in the configuration file.

Whatever state the server container is in, start brings it to running:
a paused container is unpaused, a stopped container is started, and a
missing container is created from the configured image. Before the
container is touched, the worlds directory is downloaded (first run
only) and the plugin tree is synced into the data directory.

Examples:
  craftctl start
  craftctl start --config ./servers/survival/craftctl.yml
  craftctl start --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context())
		},
	}

	return cmd
}

// runStart is the main logic function for the start command.
func runStart(ctx context.Context) error {
	// Step 1: Load the server declaration.
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	VerboseLog("Loaded configuration for server %q (image %s)", cfg.Server.Name, cfg.Server.Image)

	// Step 2: Make sure the worlds directory exists, downloading the
	// configured archive on first run.
	synced, err := worlds.Ensure(ctx, cfg.WorldsDir(), cfg.Worlds.URL)
	if err != nil {
		suggestRetry()
		return err
	}
	if synced {
		VerboseLog("Downloaded worlds archive into %s", cfg.WorldsDir())
	}

	// Step 3: Sync the plugin tree into the data directory.
	copied, err := plugins.Sync(cfg.Plugins.Source, cfg.PluginsDir())
	if err != nil {
		return err
	}
	if copied > 0 {
		VerboseLog("Copied %d plugin file(s) into %s", copied, cfg.PluginsDir())
	}

	// Step 4: Connect to the Docker daemon.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	// Step 5: Observe the current lifecycle state.
	info, err := findServer(ctx, cli, cfg.Server.Name)
	if err != nil {
		return err
	}
	action := info.State.RecoveryAction()
	VerboseLog("Server %q is %s (recovery: %s)", cfg.Server.Name, info.State, action)

	// Step 6: Apply the recovery action for the observed state.
	if err := applyRecovery(ctx, cli, cfg, info, action); err != nil {
		// One retry suggestion, as most recovery failures are
		// transient daemon races.
		suggestRetry()
		return err
	}

	// Step 7: Re-inspect so the reported state is what the daemon now
	// sees, not what we assume.
	result, err := docker.FindServer(ctx, cli, cfg.Server.Name)
	if err != nil {
		return err
	}

	printStartResult(result, action)
	return nil
}

// applyRecovery executes the recovery action that moves the server to
// running.
func applyRecovery(ctx context.Context, cli *docker.Client, cfg *config.Config, info *model.ServerInfo, action model.RecoveryAction) error {
	switch action {
	case model.ActionNone:
		return nil

	case model.ActionUnpause:
		VerboseLog("Unpausing container %s...", shortID(info.ContainerID))
		return docker.UnpauseContainer(ctx, cli, info.ContainerID)

	case model.ActionStart:
		VerboseLog("Starting container %s...", shortID(info.ContainerID))
		return docker.StartContainer(ctx, cli, info.ContainerID)

	case model.ActionCreate:
		return createAndStart(ctx, cli, cfg)

	default:
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("unknown recovery action %q", action))
	}
}

// createAndStart handles the absent state: verify the host port is
// free, pull the image, create the container, and start it.
func createAndStart(ctx context.Context, cli *docker.Client, cfg *config.Config) error {
	// A port held by another process would make the container start
	// fail with a much less actionable daemon error.
	scanner := port.NewScanner()
	if !scanner.IsPortAvailable(cfg.Server.HostPort, "tcp") {
		return model.NewCLIError(model.ExitPortInUse,
			fmt.Sprintf("host port %d is already in use", cfg.Server.HostPort))
	}

	// Pull progress goes to stderr in verbose mode so users can watch
	// layer downloads; otherwise the stream is drained silently.
	var progress io.Writer = io.Discard
	if verbose {
		progress = os.Stderr
	}
	VerboseLog("Pulling image %s...", cfg.Server.Image)
	if err := docker.PullImage(ctx, cli, cfg.Server.Image, progress); err != nil {
		return err
	}

	VerboseLog("Creating container %q...", cfg.Server.Name)
	id, err := docker.CreateServer(ctx, cli, docker.CreateSpec{
		Name:     cfg.Server.Name,
		Image:    cfg.Server.Image,
		Port:     cfg.Server.Port,
		HostPort: cfg.Server.HostPort,
		MemoryMB: cfg.Server.MemoryMB,
		DataDir:  cfg.DataDir,
		Env:      cfg.Server.Env,
	})
	if err != nil {
		return err
	}

	VerboseLog("Starting container %s...", shortID(id))
	return docker.StartContainer(ctx, cli, id)
}

// findServer looks up the configured server container and verifies
// ownership. A container with the right name but without the craftctl
// management label belongs to someone else and is never adopted.
//
// This is a shared helper used by start, stop, restart, status, logs,
// and remove.
func findServer(ctx context.Context, cli *docker.Client, name string) (*model.ServerInfo, error) {
	info, err := docker.FindServer(ctx, cli, name)
	if err != nil {
		return nil, err
	}

	if info.State != model.StateAbsent && !docker.IsManaged(info.Labels) {
		return nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("container %q exists but is not managed by craftctl — remove or rename it first", name))
	}

	return info, nil
}

// shortID truncates a container ID for log output, matching the length
// docker ps shows.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// printStartResult outputs the start command result in text or JSON
// format.
func printStartResult(info *model.ServerInfo, action model.RecoveryAction) {
	if IsJSONOutput() {
		printStartResultJSON(info, action)
	} else {
		printStartResultText(info, action)
	}
}

// printStartResultJSON outputs the start result as structured JSON.
func printStartResultJSON(info *model.ServerInfo, action model.RecoveryAction) {
	result := map[string]interface{}{
		"name":   info.Name,
		"action": string(action),
		"state":  info.State.String(),
		"ports":  info.Ports,
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printStartResultText outputs the start result as human-readable text,
// including the address players connect to.
func printStartResultText(info *model.ServerInfo, action model.RecoveryAction) {
	switch action {
	case model.ActionNone:
		fmt.Printf("Server %q is already running\n", info.Name)
	case model.ActionUnpause:
		fmt.Printf("Resumed server %q\n", info.Name)
	case model.ActionStart:
		fmt.Printf("Started server %q\n", info.Name)
	case model.ActionCreate:
		fmt.Printf("Created and started server %q\n", info.Name)
	}

	for _, hostPort := range sortedPorts(info.Ports) {
		fmt.Printf("  Connect at localhost:%d\n", hostPort)
	}
}

// sortedPorts returns the host ports of a port map in ascending order
// for stable output.
func sortedPorts(ports map[string]int) []int {
	result := make([]int, 0, len(ports))
	for _, hostPort := range ports {
		result = append(result, hostPort)
	}
	sort.Ints(result)
	return result
}
