// Package plugins copies the local plugin file tree into the server's
// data directory.
//
// Unlike worlds (seeded once from a remote archive), plugins are synced
// on every start: the configured source directory is the authority, and
// <dataDir>/plugins mirrors it. Files already present with matching size
// and modification time are skipped, so repeated starts of an unchanged
// plugin set copy nothing. Files are never deleted from the destination;
// removing a plugin is done by the user in the data directory, not by
// craftctl guessing intent.
package plugins

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mmr-tortoise/craftctl/internal/model"
)

// Sync copies the plugin tree rooted at srcDir into destDir, creating
// destDir as needed. It returns the number of files actually copied.
//
// A missing srcDir is a no-op: most servers run without plugins, and an
// empty configuration should not be an error.
func Sync(srcDir, destDir string) (int, error) {
	if srcDir == "" {
		return 0, nil
	}

	if _, err := os.Stat(srcDir); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to read plugin source %q", srcDir), err)
	}

	copied := 0
	err := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		srcInfo, err := d.Info()
		if err != nil {
			return err
		}

		if upToDate(target, srcInfo) {
			return nil
		}

		if err := copyFile(path, target, srcInfo); err != nil {
			return fmt.Errorf("failed to copy %q: %w", rel, err)
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to sync plugins from %q", srcDir), err)
	}

	return copied, nil
}

// upToDate reports whether the destination file already matches the
// source by size and modification time. Content hashing would be more
// precise, but plugin jars are large and size+mtime catches every
// rebuild in practice.
func upToDate(target string, srcInfo os.FileInfo) bool {
	dstInfo, err := os.Stat(target)
	if err != nil {
		return false
	}
	return dstInfo.Size() == srcInfo.Size() && dstInfo.ModTime().Equal(srcInfo.ModTime())
}

// copyFile copies src to dst, preserving the source's permission bits
// and modification time (the mtime is what upToDate keys on next run).
func copyFile(src, dst string, srcInfo os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}
