package docsource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/schle1cherr/docrag/internal/config"
)

// FileInfo describes one ingestible document in a source.
type FileInfo struct {
	// Name is the logical file name, recorded as chunk provenance.
	Name string
	// Mtime is the last-modified time in unix milliseconds, 0 if unknown.
	Mtime int64
	Size  int64
}

// Source lists and stages document files for ingestion. Fetch returns a
// local path readable by the extractors plus a cleanup func for any staged
// copy.
type Source interface {
	List(ctx context.Context) ([]FileInfo, error)
	Fetch(ctx context.Context, name string) (string, func(), error)
}

type Factory func(args interface{}) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.DocSourceConfig) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("doc_source.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported doc source type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("doc source config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode doc source config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode doc source config: %w", err)
	}
	return nil
}
