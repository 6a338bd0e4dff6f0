package docsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schle1cherr/docrag/internal/extract"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localSource struct {
	dir string
}

func init() {
	Register("local", createLocalSource)
}

func createLocalSource(args interface{}) (Source, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local source dir is required")
	}
	return &localSource{dir: config.Dir}, nil
}

// List walks the configured directory recursively; Name is the path
// relative to the directory root.
func (s *localSource) List(ctx context.Context) ([]FileInfo, error) {
	_ = ctx
	var files []FileInfo
	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := extract.SupportedSuffixes[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		files = append(files, FileInfo{
			Name:  filepath.ToSlash(rel),
			Mtime: info.ModTime().UnixMilli(),
			Size:  info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *localSource) Fetch(ctx context.Context, name string) (string, func(), error) {
	_ = ctx
	if strings.Contains(name, "..") || filepath.IsAbs(name) {
		return "", nil, fmt.Errorf("invalid file name")
	}
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	if _, err := os.Stat(path); err != nil {
		return "", nil, err
	}
	return path, func() {}, nil
}
