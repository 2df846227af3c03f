package docker

import (
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/craftctl/internal/model"
)

// TestInspectToInfo verifies the mapping from a Docker inspect payload
// to the domain model: state parsing, start timestamp, image, labels,
// and port bindings taken from the host config.
func TestInspectToInfo(t *testing.T) {
	inspect := types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID: "abc123def456",
			State: &types.ContainerState{
				Status:    "running",
				StartedAt: "2026-03-01T10:00:00.000000000Z",
			},
			HostConfig: &container.HostConfig{
				PortBindings: nat.PortMap{
					"25565/tcp": []nat.PortBinding{{HostPort: "25600"}},
				},
			},
		},
		Config: &container.Config{
			Image: "itzg/minecraft-server:latest",
			Labels: map[string]string{
				LabelManagedBy:  ManagedByValue,
				LabelServerName: "mc-main",
			},
		},
	}

	info := inspectToInfo("mc-main", inspect)

	assert.Equal(t, "abc123def456", info.ContainerID)
	assert.Equal(t, "mc-main", info.Name)
	assert.Equal(t, model.StateRunning, info.State)
	assert.Equal(t, "itzg/minecraft-server:latest", info.Image)
	assert.False(t, info.StartedAt.IsZero())
	require.Contains(t, info.Ports, "25565/tcp")
	assert.Equal(t, 25600, info.Ports["25565/tcp"])
}

// TestInspectToInfo_Exited verifies that a stopped container still
// reports its port bindings (they come from the host config, which
// survives the stop) and that the zero StartedAt sentinel from Docker
// maps to a zero time.
func TestInspectToInfo_Exited(t *testing.T) {
	inspect := types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID: "abc123",
			State: &types.ContainerState{
				Status:    "exited",
				StartedAt: "0001-01-01T00:00:00Z",
			},
			HostConfig: &container.HostConfig{
				PortBindings: nat.PortMap{
					"25565/tcp": []nat.PortBinding{{HostPort: "25565"}},
				},
			},
		},
		Config: &container.Config{Image: "itzg/minecraft-server:latest"},
	}

	info := inspectToInfo("mc-main", inspect)

	assert.Equal(t, model.StateExited, info.State)
	assert.True(t, info.StartedAt.IsZero())
	assert.Equal(t, 25565, info.Ports["25565/tcp"])
}

// TestSummaryToInfo verifies the mapping from a container list entry,
// including the leading-slash name strip and published port extraction.
func TestSummaryToInfo(t *testing.T) {
	summary := types.Container{
		ID:    "fff000",
		Names: []string{"/survival"},
		Image: "itzg/minecraft-server:java21",
		State: "paused",
		Ports: []types.Port{
			{PrivatePort: 25565, PublicPort: 25565, Type: "tcp"},
			{PrivatePort: 25575, Type: "tcp"}, // unpublished — skipped
		},
		Labels: map[string]string{LabelManagedBy: ManagedByValue},
	}

	info := summaryToInfo(summary)

	assert.Equal(t, "survival", info.Name)
	assert.Equal(t, model.StatePaused, info.State)
	require.Len(t, info.Ports, 1)
	assert.Equal(t, 25565, info.Ports["25565/tcp"])
}

// TestBuildPortBindings verifies the exposed-port set and binding map
// for the game port.
func TestBuildPortBindings(t *testing.T) {
	exposed, bindings := BuildPortBindings(25565, 25600)

	require.Contains(t, exposed, nat.Port("25565/tcp"))
	require.Contains(t, bindings, nat.Port("25565/tcp"))
	require.Len(t, bindings["25565/tcp"], 1)
	assert.Equal(t, "25600", bindings["25565/tcp"][0].HostPort)
}

// TestBuildEnv verifies the map-to-slice flattening is sorted, so the
// container definition is deterministic across runs.
func TestBuildEnv(t *testing.T) {
	env := BuildEnv(map[string]string{
		"MEMORY":     "4G",
		"EULA":       "TRUE",
		"DIFFICULTY": "hard",
	})

	assert.Equal(t, []string{"DIFFICULTY=hard", "EULA=TRUE", "MEMORY=4G"}, env)
	assert.Empty(t, BuildEnv(nil))
}
