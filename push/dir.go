package push

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Dir publishes into a local directory tree laid out as {Root}/{bucket}/{key}.
// Useful for dry runs and shared filesystems.
type Dir struct {
	Root string
}

func (d *Dir) UploadDir(ctx context.Context, localDir, bucket, prefix string, ignoreExt []string) error {
	files, err := Walk(localDir, prefix, ignoreExt)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(d.Root, bucket, filepath.FromSlash(f.Key))
		if err := copyFile(f.Path, dst); err != nil {
			return fmt.Errorf("copying %s: %w", f.Path, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
