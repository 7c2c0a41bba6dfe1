package output

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"csvmerge/internal/records"
)

// WriteFile serializes rs to path atomically: the data goes to a temporary
// file in the same directory, which is flushed, synced and renamed over path
// only when everything succeeded and ctx is still live. On any failure the
// temporary file is removed and an existing file at path is left untouched.
func WriteFile(ctx context.Context, path string, rs records.RowSet, opt Options) error {
	return commit(ctx, path, func(w io.Writer) error {
		return Write(ctx, w, rs, opt)
	})
}

// CheckPath reports whether path can receive output: its directory must exist
// and path must not be a directory.
func CheckPath(path string) error {
	if path == "" {
		return errors.New("output path is empty")
	}
	dir := filepath.Dir(path)
	st, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory %s: %w", dir, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		return fmt.Errorf("output path %s is a directory", path)
	}
	return nil
}

// defaultMode is the permission of a newly created output file.
const defaultMode os.FileMode = 0o644

func outputMode(dest string) os.FileMode {
	if st, err := os.Stat(dest); err == nil && st.Mode().IsRegular() {
		return st.Mode().Perm()
	}
	return defaultMode
}

// replaceFile is swapped in tests.
var replaceFile = osReplace

func commit(ctx context.Context, dest string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".csvmerge-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	// CreateTemp uses 0600; the output gets the replaced file's mode, or 0644.
	if err = os.Chmod(tmpPath, outputMode(dest)); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}

	bw := bufio.NewWriterSize(tmp, 256<<10)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = replaceFile(tmpPath, dest); err != nil {
		return fmt.Errorf("rename to %s: %w", dest, err)
	}
	_ = syncDir(dir)
	return nil
}
