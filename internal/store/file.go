package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fileState is the on-disk document.
type fileState struct {
	Catalog schemas.CatalogState   `json:"catalog" yaml:"catalog"`
	History []schemas.SearchRecord `json:"history" yaml:"history"`
}

// FileStore keeps state in a single YAML or JSON document. The format is
// picked from the extension: ".json" is JSON, anything else YAML. Every write
// replaces the whole file through a temp file and rename, so readers never see
// a partial document.
type FileStore struct {
	mu           sync.Mutex
	path         string
	asJSON       bool
	historyLimit int
	log          *zap.Logger
}

var _ Repository = (*FileStore)(nil)

func NewFileStore(path string, historyLimit int, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:         path,
		asJSON:       strings.EqualFold(filepath.Ext(path), ".json"),
		historyLimit: historyLimit,
		log:          logger.Named("store").With(zap.String("path", path)),
	}
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) LoadCatalog(ctx context.Context) (schemas.CatalogState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return schemas.CatalogState{}, err
	}
	return st.Catalog, nil
}

func (f *FileStore) SaveCatalog(ctx context.Context, state schemas.CatalogState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return err
	}
	st.Catalog = cloneState(state)
	return f.write(st)
}

func (f *FileStore) RecordSearch(ctx context.Context, rec schemas.SearchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return err
	}
	st.History = capHistory(append(st.History, rec), f.historyLimit)
	return f.write(st)
}

func (f *FileStore) ListSearches(ctx context.Context, limit int) ([]schemas.SearchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return nil, err
	}
	return newest(st.History, limit), nil
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) read() (fileState, error) {
	var st fileState
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("failed to read state file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return st, nil
	}

	if f.asJSON {
		err = json.Unmarshal(data, &st)
	} else {
		err = yaml.Unmarshal(data, &st)
	}
	if err != nil {
		return fileState{}, fmt.Errorf("%w: %s: %v", ErrInvalidState, f.path, err)
	}
	return st, nil
}

func (f *FileStore) write(st fileState) error {
	var (
		data []byte
		err  error
	)
	if f.asJSON {
		data, err = json.MarshalIndent(st, "", "  ")
	} else {
		data, err = yaml.Marshal(st)
	}
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	f.log.Debug("State written.", zap.Int("custom_templates", len(st.Catalog.Custom)), zap.Int("history", len(st.History)))
	return nil
}
