package docker

import (
	"fmt"
	"strings"
	"time"
)

// Label key constants define the Docker label keys stamped on the managed
// server container. The labels are the sole persistence mechanism — there
// is no state file, so everything "craftctl list" shows is reconstructed
// from here.
//
// All keys share the "craftctl." prefix to namespace them away from labels
// set by other tools (Compose, image defaults, IDE integrations).
const (
	// LabelPrefix is the common prefix for all craftctl labels.
	LabelPrefix = "craftctl."

	// LabelManagedBy identifies containers managed by craftctl.
	// This is the primary label used for filtering and discovery.
	// Key: "craftctl.managed-by", Value: always "craftctl".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelServerName stores the server name the container was created for.
	// Key: "craftctl.server-name", Value: e.g. "mc-main".
	LabelServerName = LabelPrefix + "server-name"

	// LabelImage stores the image reference the container was created from,
	// as written in the configuration file. The daemon also knows the image,
	// but the configured reference (with its tag) is what version reporting
	// needs.
	LabelImage = LabelPrefix + "image"

	// LabelDataDir stores the absolute host path of the data directory
	// bind-mounted into the container.
	LabelDataDir = LabelPrefix + "data-dir"

	// LabelCreatedAt stores the RFC3339 timestamp of container creation.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "craftctl"

// ServerMeta is the craftctl metadata stamped onto the server container
// at creation time and read back when listing or inspecting.
type ServerMeta struct {
	Name      string
	Image     string
	DataDir   string
	CreatedAt time.Time
}

// BuildLabels constructs the Docker label map applied to the server
// container. The inverse is ParseLabels.
func BuildLabels(meta ServerMeta) map[string]string {
	return map[string]string{
		LabelManagedBy:  ManagedByValue,
		LabelServerName: meta.Name,
		LabelImage:      meta.Image,
		LabelDataDir:    meta.DataDir,
		// UTC keeps the stamp consistent regardless of host timezone.
		LabelCreatedAt: meta.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reconstructs ServerMeta from a container's label map.
// Required labels: managed-by, server-name. The remaining labels are
// optional so containers created by older versions still parse.
func ParseLabels(labels map[string]string) (*ServerMeta, error) {
	var missing []string
	for _, key := range []string{LabelManagedBy, LabelServerName} {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	meta := &ServerMeta{
		Name:    labels[LabelServerName],
		Image:   labels[LabelImage],
		DataDir: labels[LabelDataDir],
	}

	if raw, ok := labels[LabelCreatedAt]; ok && raw != "" {
		createdAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
		}
		meta.CreatedAt = createdAt
	}

	return meta, nil
}

// IsManaged reports whether a label map belongs to a craftctl-managed
// container. Used when a container with the configured name already
// exists: refusing to adopt someone else's container beats silently
// restarting it.
func IsManaged(labels map[string]string) bool {
	return labels[LabelManagedBy] == ManagedByValue
}
