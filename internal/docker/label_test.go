package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLabelsRoundTrip verifies that BuildLabels and ParseLabels are
// inverses: the metadata stamped onto a container at creation time must
// be fully recoverable from the label map alone, since labels are the
// only persistence craftctl has.
func TestLabelsRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	meta := ServerMeta{
		Name:      "mc-main",
		Image:     "itzg/minecraft-server:java21",
		DataDir:   "/srv/mc-main/data",
		CreatedAt: createdAt,
	}

	labels := BuildLabels(meta)
	assert.Equal(t, ManagedByValue, labels[LabelManagedBy])
	assert.Equal(t, "mc-main", labels[LabelServerName])
	assert.Equal(t, "2026-03-01T10:30:00Z", labels[LabelCreatedAt])

	parsed, err := ParseLabels(labels)
	require.NoError(t, err)
	assert.Equal(t, meta.Name, parsed.Name)
	assert.Equal(t, meta.Image, parsed.Image)
	assert.Equal(t, meta.DataDir, parsed.DataDir)
	assert.True(t, createdAt.Equal(parsed.CreatedAt))
}

// TestParseLabelsMissing verifies that required labels are reported by
// name when absent, and that optional labels may be omitted.
func TestParseLabelsMissing(t *testing.T) {
	// Both required labels missing: the error should name them.
	_, err := ParseLabels(map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelManagedBy)
	assert.Contains(t, err.Error(), LabelServerName)

	// Only the required labels present: optional ones default to zero.
	parsed, err := ParseLabels(map[string]string{
		LabelManagedBy:  ManagedByValue,
		LabelServerName: "mc-main",
	})
	require.NoError(t, err)
	assert.Equal(t, "mc-main", parsed.Name)
	assert.Empty(t, parsed.Image)
	assert.True(t, parsed.CreatedAt.IsZero())
}

// TestParseLabelsForeignContainer verifies that a container carrying the
// label keys but a different managed-by value is rejected. craftctl must
// never adopt a container created by another tool.
func TestParseLabelsForeignContainer(t *testing.T) {
	_, err := ParseLabels(map[string]string{
		LabelManagedBy:  "some-other-tool",
		LabelServerName: "mc-main",
	})
	assert.Error(t, err)
}

// TestParseLabelsBadTimestamp verifies that a malformed created-at label
// fails the parse rather than being silently zeroed.
func TestParseLabelsBadTimestamp(t *testing.T) {
	_, err := ParseLabels(map[string]string{
		LabelManagedBy:  ManagedByValue,
		LabelServerName: "mc-main",
		LabelCreatedAt:  "yesterday",
	})
	assert.Error(t, err)
}

// TestIsManaged covers the quick ownership check used before adopting
// an existing container with the configured name.
func TestIsManaged(t *testing.T) {
	assert.True(t, IsManaged(map[string]string{LabelManagedBy: ManagedByValue}))
	assert.False(t, IsManaged(map[string]string{LabelManagedBy: "compose"}))
	assert.False(t, IsManaged(map[string]string{}))
	assert.False(t, IsManaged(nil))
}
