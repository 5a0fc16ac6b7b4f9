package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-console/internal/model"
	"github.com/kart-io/mongo-console/pkg/utils/json"
)

// FileStore keeps descriptors in a JSON document on disk.
type FileStore struct {
	*memory

	path string

	// written is the last document this store wrote, used to tell our own
	// writes apart from external edits.
	written []byte
}

var (
	_ Store   = (*FileStore)(nil)
	_ Watcher = (*FileStore)(nil)
)

// NewFileStore creates a store backed by the file at path. A missing file is
// an empty store.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		memory: newMemory(),
		path:   path,
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the document from disk.
func (s *FileStore) Load(_ context.Context) error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.replace(make(map[string]*model.Connection))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	conns, err := decodeDocument(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	s.replace(conns)

	s.mu.Lock()
	s.written = data
	s.mu.Unlock()
	return nil
}

// Save writes the whole document atomically through a temp file and rename.
func (s *FileStore) Save(_ context.Context) error {
	upserts, deletes := s.pending()
	data, err := encodeDocument(s.snapshot())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(s.path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}

	s.mu.Lock()
	s.written = data
	s.mu.Unlock()

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	s.markSaved(upserts, deletes)
	return nil
}

// Watch reloads the store whenever the file is changed by someone else.
// It watches the parent directory because Save replaces the file.
func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if s.reloadIfChanged(ctx) && onChange != nil {
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("Config file watcher error", "path", s.path, "error", err)
			}
		}
	}()

	logger.Infow("Watching config file", "path", s.path)
	return nil
}

// reloadIfChanged loads the file when its content differs from what this
// store last wrote. It reports whether a reload happened.
func (s *FileStore) reloadIfChanged(ctx context.Context) bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}

	s.mu.RLock()
	same := bytes.Equal(data, s.written)
	s.mu.RUnlock()
	if same {
		return false
	}

	if err := s.Load(ctx); err != nil {
		logger.Warnw("Ignoring unreadable config file edit", "path", s.path, "error", err)
		return false
	}
	logger.Infow("Config file changed externally, reloaded", "path", s.path)
	return true
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

func encodeDocument(conns map[string]*model.Connection) ([]byte, error) {
	data, err := json.MarshalIndent(model.ConnectionDocument{Connections: conns}, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode connections: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeDocument(data []byte) (map[string]*model.Connection, error) {
	conns := make(map[string]*model.Connection)
	if len(bytes.TrimSpace(data)) == 0 {
		return conns, nil
	}

	var doc model.ConnectionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for name, c := range doc.Connections {
		if c == nil {
			continue
		}
		c.Name = name
		if c.ConnectionOptions == nil {
			c.ConnectionOptions = map[string]any{}
		}
		conns[name] = c
	}
	return conns, nil
}
