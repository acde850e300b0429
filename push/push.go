// Package push uploads a finished run directory to object storage.
package push

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// Params configure publishing of a run directory.
type Params struct {
	Bucket    string   `yaml:"bucket"`
	Prefix    string   `yaml:"prefix"`
	Region    string   `yaml:"region"`
	IgnoreExt []string `yaml:"ignore_ext"`
	// Required makes a publish failure fail the run.
	Required bool `yaml:"required"`
}

// Publisher uploads the contents of localDir below prefix in bucket,
// skipping files whose extension is in ignoreExt.
type Publisher interface {
	UploadDir(ctx context.Context, localDir, bucket, prefix string, ignoreExt []string) error
}

// File is one upload unit found by Walk.
type File struct {
	Path string // local path
	Key  string // slash-separated object key
}

// Walk lists the files under localDir that should be uploaded, keyed below
// prefix. .DS_Store and files with an ignored extension are skipped.
func Walk(localDir, prefix string, ignoreExt []string) ([]File, error) {
	ignored := make(map[string]bool, len(ignoreExt))
	for _, ext := range ignoreExt {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		ignored[ext] = true
	}

	var files []File
	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == ".DS_Store" || ignored[filepath.Ext(p)] {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		files = append(files, File{Path: p, Key: path.Join(prefix, filepath.ToSlash(rel))})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", localDir, err)
	}
	return files, nil
}
