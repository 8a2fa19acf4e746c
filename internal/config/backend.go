package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// backend persists the settings document
type backend interface {
	// load returns found=false when nothing has been persisted yet
	load() (doc document, found bool, err error)
	save(doc document) error
	close() error
	String() string
}

// codec is a structured document format
type codec struct {
	name      string
	marshal   func(v any) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

var (
	jsonCodec = codec{
		name:      "json",
		marshal:   func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
		unmarshal: json.Unmarshal,
	}
	yamlCodec = codec{name: "yaml", marshal: yaml.Marshal, unmarshal: yaml.Unmarshal}
	tomlCodec = codec{name: "toml", marshal: toml.Marshal, unmarshal: toml.Unmarshal}
)

// newBackend picks the persistence format from the file extension
func newBackend(path string, logger *zap.Logger) (backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings path cannot be empty")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return &fileBackend{logger: logger, path: path, codec: jsonCodec}, nil
	case ".yaml", ".yml":
		return &fileBackend{logger: logger, path: path, codec: yamlCodec}, nil
	case ".toml":
		return &fileBackend{logger: logger, path: path, codec: tomlCodec}, nil
	case ".db", ".sqlite", ".sqlite3":
		return newSQLiteBackend(path, logger)
	default:
		return nil, fmt.Errorf("unsupported settings format %q", filepath.Ext(path))
	}
}

// fileBackend stores the whole document in one file
type fileBackend struct {
	logger *zap.Logger
	path   string
	codec  codec
}

func (b *fileBackend) load() (document, bool, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return document{}, false, nil
	}
	if err != nil {
		return document{}, false, fmt.Errorf("read settings: %w", err)
	}

	// Decoded loosely so missing or mistyped keys keep their defaults
	values := make(map[string]any)
	if err := b.codec.unmarshal(data, &values); err != nil {
		return document{}, false, fmt.Errorf("parse %s settings: %w", b.codec.name, err)
	}
	return documentFromValues(values, b.logger), true, nil
}

func (b *fileBackend) save(doc document) error {
	data, err := b.codec.marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s settings: %w", b.codec.name, err)
	}
	return writeFileAtomic(b.path, data, 0o644)
}

func (b *fileBackend) close() error { return nil }

func (b *fileBackend) String() string { return b.codec.name + ":" + b.path }

// writeFileAtomic replaces path in one rename so readers never observe a partial file
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp settings file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp settings file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}
