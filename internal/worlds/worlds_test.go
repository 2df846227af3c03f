package worlds

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/craftctl/internal/model"
)

// buildZip creates an in-memory zip archive from a map of entry name to
// file content. Entries ending in "/" become directories.
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		if len(name) > 0 && name[len(name)-1] == '/' {
			_, err := w.Create(name)
			require.NoError(t, err)
			continue
		}
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// serveZip starts a test HTTP server that responds to every request with
// the given archive bytes.
func serveZip(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestEnsureDownloadsAndExtracts verifies the full first-run path:
// download the archive, extract it, and leave the worlds directory
// populated with the archive contents.
func TestEnsureDownloadsAndExtracts(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"world/":           "",
		"world/level.dat":  "level data",
		"world_nether/x":   "nether",
		"world/region/r.0": "region data",
	})
	srv := serveZip(t, archive)

	worldsDir := filepath.Join(t.TempDir(), "data", "worlds")
	synced, err := Ensure(context.Background(), worldsDir, srv.URL)
	require.NoError(t, err)
	assert.True(t, synced, "first run should report a sync")

	level, err := os.ReadFile(filepath.Join(worldsDir, "world", "level.dat"))
	require.NoError(t, err)
	assert.Equal(t, "level data", string(level))

	region, err := os.ReadFile(filepath.Join(worldsDir, "world", "region", "r.0"))
	require.NoError(t, err)
	assert.Equal(t, "region data", string(region))
}

// TestEnsureIdempotent verifies that a populated worlds directory is
// never touched again, even when the remote archive has different
// contents.
func TestEnsureIdempotent(t *testing.T) {
	srv := serveZip(t, buildZip(t, map[string]string{"world/level.dat": "remote"}))

	worldsDir := filepath.Join(t.TempDir(), "worlds")
	require.NoError(t, os.MkdirAll(worldsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(worldsDir, "level.dat"), []byte("local"), 0644))

	synced, err := Ensure(context.Background(), worldsDir, srv.URL)
	require.NoError(t, err)
	assert.False(t, synced, "populated directory must not be re-synced")

	// The local file survives untouched.
	content, err := os.ReadFile(filepath.Join(worldsDir, "level.dat"))
	require.NoError(t, err)
	assert.Equal(t, "local", string(content))
}

// TestEnsureNoURL verifies that without a configured URL, Ensure just
// creates the (empty) worlds directory for the server image to seed.
func TestEnsureNoURL(t *testing.T) {
	worldsDir := filepath.Join(t.TempDir(), "worlds")

	synced, err := Ensure(context.Background(), worldsDir, "")
	require.NoError(t, err)
	assert.False(t, synced)

	info, err := os.Stat(worldsDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// TestEnsureHTTPError verifies that a non-200 response maps to the
// dedicated world-sync exit code and leaves no worlds directory behind.
func TestEnsureHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	worldsDir := filepath.Join(t.TempDir(), "worlds")
	_, err := Ensure(context.Background(), worldsDir, srv.URL)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitWorldSyncFailed, cliErr.Code)

	_, statErr := os.Stat(worldsDir)
	assert.True(t, os.IsNotExist(statErr), "failed sync must not leave a worlds directory")
}

// TestEnsureNotAZip verifies that a non-archive response fails cleanly
// without populating the target directory.
func TestEnsureNotAZip(t *testing.T) {
	srv := serveZip(t, []byte("<html>definitely not a zip</html>"))

	worldsDir := filepath.Join(t.TempDir(), "worlds")
	_, err := Ensure(context.Background(), worldsDir, srv.URL)
	require.Error(t, err)

	_, statErr := os.Stat(worldsDir)
	assert.True(t, os.IsNotExist(statErr))
}

// TestExtractRejectsZipSlip verifies that archive entries attempting to
// escape the destination directory are rejected.
func TestExtractRejectsZipSlip(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("../escape.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("pwned"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0644))

	err = extractToDir(archivePath, filepath.Join(dir, "worlds"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")

	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr), "entry must not be written outside the destination")
}
