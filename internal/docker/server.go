// server.go implements the Docker lifecycle operations for the managed
// Minecraft server container: inspect, pull, create, start, stop,
// unpause, remove, and log streaming.
//
// The container is always addressed by its name (the server name from
// the configuration file). Absence of the container is not an error at
// this layer — it is one of the four lifecycle states, reported as
// model.StateAbsent, and the CLI decides what to do about it.
package docker

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"github.com/mmr-tortoise/craftctl/internal/model"
)

// CreateSpec describes the server container to create. It is built by
// the CLI layer from the loaded configuration.
type CreateSpec struct {
	// Name is the server name, used verbatim as the container name.
	Name string

	// Image is the container image reference to pull and run.
	Image string

	// Port is the game port inside the container.
	Port int

	// HostPort is the host port the game port is published on.
	HostPort int

	// MemoryMB is the container memory limit in megabytes. Zero means
	// no limit.
	MemoryMB int

	// DataDir is the absolute host path bind-mounted at /data, where
	// the server image keeps worlds, plugins, and server.properties.
	DataDir string

	// Env is the container environment (EULA, difficulty, and so on).
	Env map[string]string
}

// FindServer inspects the container with the given name and maps the
// result into the four-state lifecycle model. A missing container is
// not an error: it returns a ServerInfo with StateAbsent so callers can
// branch on the state uniformly.
func FindServer(ctx context.Context, cli *Client, name string) (*model.ServerInfo, error) {
	inspect, err := cli.Inner().ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return &model.ServerInfo{Name: name, State: model.StateAbsent}, nil
		}
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to inspect container %q", name),
			err,
		)
	}

	return inspectToInfo(name, inspect), nil
}

// inspectToInfo converts a Docker inspect result into the domain model.
// This is a pure mapping function with no side effects.
func inspectToInfo(name string, inspect types.ContainerJSON) *model.ServerInfo {
	info := &model.ServerInfo{
		ContainerID: inspect.ID,
		Name:        name,
		State:       model.StateAbsent,
	}

	if inspect.Config != nil {
		info.Image = inspect.Config.Image
		info.Labels = inspect.Config.Labels
	}

	if inspect.State != nil {
		info.State = model.ParseServerState(inspect.State.Status)

		// StartedAt is an RFC3339Nano string in the inspect payload.
		// A container that never ran reports a zero timestamp, which
		// time.Parse accepts and IsZero handles downstream.
		if ts, err := time.Parse(time.RFC3339Nano, inspect.State.StartedAt); err == nil {
			info.StartedAt = ts
		}
	}

	// Port mappings come from the host config rather than the network
	// settings so they are reported even while the container is stopped.
	if inspect.HostConfig != nil && len(inspect.HostConfig.PortBindings) > 0 {
		info.Ports = make(map[string]int, len(inspect.HostConfig.PortBindings))
		for port, bindings := range inspect.HostConfig.PortBindings {
			if len(bindings) == 0 {
				continue
			}
			if hostPort, err := strconv.Atoi(bindings[0].HostPort); err == nil {
				info.Ports[string(port)] = hostPort
			}
		}
	}

	return info
}

// ListManagedServers queries the daemon for all containers carrying the
// craftctl management label, including stopped ones. This backs the
// "craftctl list" command; filtering happens server-side in the daemon.
func ListManagedServers(ctx context.Context, cli *Client) ([]model.ServerInfo, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ServerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, summaryToInfo(c))
	}

	// Sort by name for stable output.
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// summaryToInfo converts a container list entry into the domain model.
// Docker returns names with a leading "/" that we strip for display.
func summaryToInfo(c types.Container) model.ServerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	info := model.ServerInfo{
		ContainerID: c.ID,
		Name:        name,
		Image:       c.Image,
		State:       model.ParseServerState(c.State),
		Labels:      c.Labels,
	}

	if len(c.Ports) > 0 {
		info.Ports = make(map[string]int, len(c.Ports))
		for _, p := range c.Ports {
			if p.PublicPort == 0 {
				continue
			}
			key := fmt.Sprintf("%d/%s", p.PrivatePort, p.Type)
			info.Ports[key] = int(p.PublicPort)
		}
	}

	return info
}

// PullImage pulls the server image, draining the progress stream into
// the given writer. Passing io.Discard silences progress; the verbose
// CLI path passes stderr so users can watch layer downloads.
func PullImage(ctx context.Context, cli *Client, ref string, progress io.Writer) error {
	reader, err := cli.Inner().ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to pull image %q", ref),
			err,
		)
	}
	defer reader.Close()

	// The pull is not complete until the stream is fully consumed.
	if _, err := io.Copy(progress, reader); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed while pulling image %q", ref),
			err,
		)
	}
	return nil
}

// CreateServer creates (but does not start) the server container from
// the spec: game port binding, /data bind mount, memory limit, craftctl
// labels, and an unless-stopped restart policy so the server survives
// host reboots without craftctl running.
//
// Returns the new container's ID.
func CreateServer(ctx context.Context, cli *Client, spec CreateSpec) (string, error) {
	exposedPorts, portBindings := BuildPortBindings(spec.Port, spec.HostPort)

	hostConfig := &container.HostConfig{
		PortBindings: portBindings,
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: spec.DataDir,
				Target: "/data",
			},
		},
		RestartPolicy: container.RestartPolicy{Name: "unless-stopped"},
	}
	if spec.MemoryMB > 0 {
		hostConfig.Memory = int64(spec.MemoryMB) * 1024 * 1024
	}

	labels := BuildLabels(ServerMeta{
		Name:      spec.Name,
		Image:     spec.Image,
		DataDir:   spec.DataDir,
		CreatedAt: time.Now(),
	})

	resp, err := cli.Inner().ContainerCreate(ctx, &container.Config{
		Image:        spec.Image,
		Env:          BuildEnv(spec.Env),
		ExposedPorts: exposedPorts,
		Labels:       labels,
		// The server console runs on stdin; keeping it open allows
		// attaching for console commands later.
		Tty:       true,
		OpenStdin: true,
	}, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to create container %q from image %q", spec.Name, spec.Image),
			err,
		)
	}

	return resp.ID, nil
}

// BuildPortBindings constructs the exposed-port set and the host port
// binding map for the game port. Exported for testing.
func BuildPortBindings(port, hostPort int) (nat.PortSet, nat.PortMap) {
	containerPort := nat.Port(fmt.Sprintf("%d/tcp", port))
	exposed := nat.PortSet{containerPort: struct{}{}}
	bindings := nat.PortMap{
		containerPort: []nat.PortBinding{
			{HostPort: strconv.Itoa(hostPort)},
		},
	}
	return exposed, bindings
}

// BuildEnv flattens an environment map into the KEY=VALUE slice the
// Docker API expects, sorted by key so container recreation is
// deterministic. Exported for testing.
func BuildEnv(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StartContainer starts a stopped container by ID or name.
func StartContainer(ctx context.Context, cli *Client, id string) error {
	if err := cli.Inner().ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to start container %q", id),
			err,
		)
	}
	return nil
}

// StopContainer gracefully stops a running container, giving the server
// process timeoutSeconds to save worlds and exit before Docker kills it.
// Minecraft servers flush world data on SIGTERM, so a generous timeout
// matters more here than for a typical web service.
func StopContainer(ctx context.Context, cli *Client, id string, timeoutSeconds int) error {
	opts := container.StopOptions{}
	if timeoutSeconds > 0 {
		opts.Timeout = &timeoutSeconds
	}
	if err := cli.Inner().ContainerStop(ctx, id, opts); err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to stop container %q", id),
			err,
		)
	}
	return nil
}

// UnpauseContainer resumes a paused container. This is the recovery
// action for model.StatePaused.
func UnpauseContainer(ctx context.Context, cli *Client, id string) error {
	if err := cli.Inner().ContainerUnpause(ctx, id); err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to unpause container %q", id),
			err,
		)
	}
	return nil
}

// RemoveContainer removes the container. With force, Docker kills a
// running container first. The data directory on the host is never
// touched — worlds survive container removal.
func RemoveContainer(ctx context.Context, cli *Client, id string, force bool) error {
	if err := cli.Inner().ContainerRemove(ctx, id, container.RemoveOptions{Force: force}); err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to remove container %q", id),
			err,
		)
	}
	return nil
}

// StreamLogs copies the container's log output to the given writers.
// When the container runs with a TTY (as craftctl creates it), the log
// stream is raw; otherwise it is multiplexed and demuxed with stdcopy.
// Blocks until the stream ends or ctx is cancelled when follow is set.
func StreamLogs(ctx context.Context, cli *Client, id string, follow bool, tail string, stdout, stderr io.Writer) error {
	reader, err := cli.Inner().ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Tail:       tail,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to get logs for container %q", id),
			err,
		)
	}
	defer reader.Close()

	inspect, err := cli.Inner().ContainerInspect(ctx, id)
	if err == nil && inspect.Config != nil && inspect.Config.Tty {
		_, err = io.Copy(stdout, reader)
	} else {
		_, err = stdcopy.StdCopy(stdout, stderr, reader)
	}
	if err != nil && ctx.Err() == nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed while streaming logs for container %q", id),
			err,
		)
	}
	return nil
}
