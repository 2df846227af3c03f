// Package worlds manages the server's worlds data directory.
//
// The worlds directory is seeded once from a remote zip archive: if
// <dataDir>/worlds already exists and is non-empty, Ensure is a no-op,
// so an established server never has its worlds overwritten. Otherwise
// the archive is downloaded over HTTP to a temp file, extracted into a
// staging directory next to the target, and moved into place with a
// single rename — a failed download or extraction never leaves a
// half-populated worlds directory behind.
package worlds

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmr-tortoise/craftctl/internal/model"
)

// downloadTimeout bounds the whole archive download. World archives for
// established servers run to a few gigabytes, so this is deliberately
// long; ctx cancellation (SIGINT) still interrupts earlier.
const downloadTimeout = 30 * time.Minute

// httpClient is the client used for archive downloads. Package-level so
// tests can point it at a test server transport if ever needed.
var httpClient = &http.Client{Timeout: downloadTimeout}

// Ensure makes sure worldsDir exists and is populated. It returns true
// when a download was performed, false when the directory was already
// present (or no URL is configured and an empty directory was created).
//
// Errors are model.CLIErrors with ExitWorldSyncFailed so the CLI can
// print the retry suggestion and exit with the dedicated code.
func Ensure(ctx context.Context, worldsDir, url string) (bool, error) {
	populated, err := isPopulated(worldsDir)
	if err != nil {
		return false, model.WrapCLIError(model.ExitWorldSyncFailed,
			fmt.Sprintf("failed to check worlds directory %q", worldsDir), err)
	}
	if populated {
		return false, nil
	}

	if url == "" {
		// No remote source configured: the server image generates a
		// fresh world on first boot, it just needs the directory.
		if err := os.MkdirAll(worldsDir, 0755); err != nil {
			return false, model.WrapCLIError(model.ExitWorldSyncFailed,
				fmt.Sprintf("failed to create worlds directory %q", worldsDir), err)
		}
		return false, nil
	}

	archive, err := download(ctx, url)
	if err != nil {
		return false, err
	}
	defer os.Remove(archive)

	if err := extractToDir(archive, worldsDir); err != nil {
		return false, err
	}

	return true, nil
}

// isPopulated reports whether dir exists and contains at least one entry.
func isPopulated(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return len(entries) > 0, nil
}

// download fetches the archive to a temp file and returns its path.
// The caller is responsible for removing the file.
func download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", model.WrapCLIError(model.ExitWorldSyncFailed,
			fmt.Sprintf("invalid worlds url %q", url), err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", model.WrapCLIError(model.ExitWorldSyncFailed,
			fmt.Sprintf("failed to download worlds archive from %q", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", model.NewCLIError(model.ExitWorldSyncFailed,
			fmt.Sprintf("failed to download worlds archive from %q: HTTP %d", url, resp.StatusCode))
	}

	tmp, err := os.CreateTemp("", "craftctl-worlds-*.zip")
	if err != nil {
		return "", model.WrapCLIError(model.ExitWorldSyncFailed,
			"failed to create temporary archive file", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", model.WrapCLIError(model.ExitWorldSyncFailed,
			fmt.Sprintf("failed while downloading worlds archive from %q", url), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", model.WrapCLIError(model.ExitWorldSyncFailed,
			"failed to write temporary archive file", err)
	}

	return tmp.Name(), nil
}

// extractToDir extracts the zip archive into destDir via a staging
// directory and a final rename, so destDir either appears fully
// populated or not at all.
func extractToDir(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return model.WrapCLIError(model.ExitWorldSyncFailed,
			"failed to open worlds archive (is the URL a zip file?)", err)
	}
	defer reader.Close()

	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return model.WrapCLIError(model.ExitWorldSyncFailed,
			fmt.Sprintf("failed to create directory %q", parent), err)
	}

	staging, err := os.MkdirTemp(parent, ".worlds-staging-*")
	if err != nil {
		return model.WrapCLIError(model.ExitWorldSyncFailed,
			"failed to create staging directory", err)
	}
	// Best-effort cleanup; after a successful rename the directory no
	// longer exists and RemoveAll is a no-op.
	defer os.RemoveAll(staging)

	for _, file := range reader.File {
		if err := extractFile(file, staging); err != nil {
			return model.WrapCLIError(model.ExitWorldSyncFailed,
				fmt.Sprintf("failed to extract %q from worlds archive", file.Name), err)
		}
	}

	// An empty destDir may exist from an earlier aborted run; rename
	// requires the target to be absent.
	if err := os.Remove(destDir); err != nil && !os.IsNotExist(err) {
		return model.WrapCLIError(model.ExitWorldSyncFailed,
			fmt.Sprintf("failed to replace worlds directory %q", destDir), err)
	}

	if err := os.Rename(staging, destDir); err != nil {
		return model.WrapCLIError(model.ExitWorldSyncFailed,
			fmt.Sprintf("failed to move worlds into place at %q", destDir), err)
	}

	return nil
}

// extractFile writes a single zip entry under destDir, rejecting entries
// whose resolved path would escape destDir (zip-slip).
func extractFile(file *zip.File, destDir string) error {
	target := filepath.Join(destDir, filepath.FromSlash(file.Name))

	// filepath.Join cleans the path, so a "../" entry resolves outside
	// destDir and fails this prefix check.
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("archive entry %q escapes the destination directory", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, file.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
