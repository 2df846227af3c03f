// list.go implements the "craftctl list" command.
//
// List shows every craftctl-managed server container on the daemon,
// discovered by the "craftctl.managed-by" label. Unlike the other
// commands it needs no configuration file: the label filter alone
// identifies the containers, so list works from any directory.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/craftctl/internal/docker"
	"github.com/mmr-tortoise/craftctl/internal/model"
)

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all craftctl-managed servers",
		Long: `List every server container managed by craftctl on this Docker daemon.

Discovery is label-based, so the command works without a configuration
file and shows servers declared in other directories too.

Examples:
  craftctl list
  craftctl list --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context())
		},
	}

	return cmd
}

// runList is the main logic function for the list command.
func runList(ctx context.Context) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	servers, err := docker.ListManagedServers(ctx, cli)
	if err != nil {
		return err
	}
	VerboseLog("Found %d managed server(s)", len(servers))

	printListResult(servers)
	return nil
}

// printListResult outputs the server list in text or JSON format.
func printListResult(servers []model.ServerInfo) {
	if IsJSONOutput() {
		printListResultJSON(servers)
	} else {
		printListResultText(servers)
	}
}

// printListResultJSON outputs the server list as structured JSON. The
// top-level key is "servers" containing an array; an empty slice is
// used instead of nil so the JSON shows [] rather than null.
func printListResultJSON(servers []model.ServerInfo) {
	result := map[string]interface{}{
		"servers": servers,
	}
	if servers == nil {
		result["servers"] = []model.ServerInfo{}
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printListResultText outputs the server list as a text table:
//
//	NAME        STATE     IMAGE                          PORTS
//	mc-main     running   itzg/minecraft-server:java21   25565
//	survival    exited    itzg/minecraft-server:latest   -
func printListResultText(servers []model.ServerInfo) {
	if len(servers) == 0 {
		fmt.Println("No craftctl-managed servers found.")
		return
	}

	fmt.Printf("%-20s %-10s %-35s %s\n", "NAME", "STATE", "IMAGE", "PORTS")
	for _, srv := range servers {
		fmt.Printf("%-20s %-10s %-35s %s\n",
			srv.Name,
			srv.State.String(),
			srv.Image,
			FormatPortsList(srv.Ports),
		)
	}
}

// FormatPortsList converts a port map into a comma-separated string of
// host ports in ascending numeric order. Returns "-" when no ports are
// published. Exported for testing.
//
// Example:
//
//	{"25565/tcp": 25600, "25575/tcp": 25575} → "25575,25600"
//	{}                                        → "-"
func FormatPortsList(ports map[string]int) string {
	if len(ports) == 0 {
		return "-"
	}

	// Numeric sort: lexicographic ordering would put "3000" after "25565".
	nums := sortedPorts(ports)

	parts := make([]string, 0, len(nums))
	for _, p := range nums {
		parts = append(parts, strconv.Itoa(p))
	}
	return strings.Join(parts, ",")
}
