// status.go implements the "craftctl status" command.
//
// Status reports the server's lifecycle state together with the facts a
// user wants before deciding what to do next: image, uptime, published
// ports, and — when the server is running — a best-effort player count
// obtained with a Minecraft status ping. For any non-running state the
// command names the recovery ("craftctl start" handles all of them).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcstatus-io/mcutil/v4/status"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/craftctl/internal/config"
	"github.com/mmr-tortoise/craftctl/internal/docker"
	"github.com/mmr-tortoise/craftctl/internal/model"
)

// pingTimeout bounds the Minecraft status ping. The server answers from
// localhost in single-digit milliseconds once it has booted; anything
// longer means it is still loading chunks and the ping should not hold
// the status command hostage.
const pingTimeout = 3 * time.Second

// statusReport is the assembled status of the managed server, shared by
// the text and JSON output paths.
type statusReport struct {
	Name          string         `json:"name"`
	State         string         `json:"state"`
	Image         string         `json:"image,omitempty"`
	Uptime        string         `json:"uptime,omitempty"`
	Ports         map[string]int `json:"ports,omitempty"`
	PlayersOnline *int           `json:"playersOnline,omitempty"`
	PlayersMax    *int           `json:"playersMax,omitempty"`
	Hint          string         `json:"hint,omitempty"`
}

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the server's state",
		Long: `Show the lifecycle state of the Minecraft server container.

For a running server the report includes uptime, published ports, and a
best-effort player count from a Minecraft status ping. For any other
state the report names the command that recovers it.

Examples:
  craftctl status
  craftctl status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}

	return cmd
}

// runStatus is the main logic function for the status command.
func runStatus(ctx context.Context) error {
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

	report := buildStatusReport(info, time.Now())

	// Best-effort player count: a failed ping (server still booting,
	// query disabled) degrades to state-only output, never an error.
	if info.State == model.StateRunning {
		if online, max, ok := pingPlayers(ctx, cfg.Server.HostPort); ok {
			report.PlayersOnline = &online
			report.PlayersMax = &max
		} else {
			VerboseLog("Status ping on port %d failed — server may still be booting", cfg.Server.HostPort)
		}
	}

	printStatusReport(report)
	return nil
}

// buildStatusReport assembles the report from the inspected server info.
// Pure function, exercised directly by tests.
func buildStatusReport(info *model.ServerInfo, now time.Time) *statusReport {
	report := &statusReport{
		Name:  info.Name,
		State: info.State.String(),
		Image: info.Image,
		Ports: info.Ports,
	}

	if uptime := info.Uptime(now); uptime > 0 {
		report.Uptime = formatUptime(uptime)
	}

	switch info.State {
	case model.StatePaused:
		report.Hint = `server is paused — "craftctl start" resumes it`
	case model.StateExited:
		report.Hint = `server is stopped — "craftctl start" starts it`
	case model.StateAbsent:
		report.Hint = `server does not exist — "craftctl start" creates it`
	}

	return report
}

// pingPlayers performs a Minecraft status ping against the published
// game port on localhost and returns the online and max player counts.
// The ok result is false when the ping fails or the response carries no
// player section.
func pingPlayers(ctx context.Context, hostPort int) (online, max int, ok bool) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp, err := status.Modern(pingCtx, "127.0.0.1", uint16(hostPort))
	if err != nil || resp == nil || resp.Players.Online == nil || resp.Players.Max == nil {
		return 0, 0, false
	}
	return int(*resp.Players.Online), int(*resp.Players.Max), true
}

// formatUptime renders a duration the way uptime tooling does: the two
// most significant units, so "3d2h", "2h15m", "5m", "30s".
func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// printStatusReport outputs the report in text or JSON format.
func printStatusReport(report *statusReport) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Server:  %s\n", report.Name)
	fmt.Printf("State:   %s\n", report.State)
	if report.Image != "" {
		fmt.Printf("Image:   %s\n", report.Image)
	}
	if report.Uptime != "" {
		fmt.Printf("Uptime:  %s\n", report.Uptime)
	}
	for _, hostPort := range sortedPorts(report.Ports) {
		fmt.Printf("Port:    localhost:%d\n", hostPort)
	}
	if report.PlayersOnline != nil && report.PlayersMax != nil {
		fmt.Printf("Players: %d/%d online\n", *report.PlayersOnline, *report.PlayersMax)
	}
	if report.Hint != "" {
		fmt.Printf("\n%s\n", report.Hint)
	}
}
