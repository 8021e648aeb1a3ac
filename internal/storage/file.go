package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// selfWindow is how long after a local write a matching file event is
// attributed to this process rather than to another one.
const selfWindow = time.Second

// FileStore keeps each key as a file in a data directory. It is the
// single-machine backend; fsnotify provides the external-change push.
type FileStore struct {
	dir string
	log *zap.Logger

	mu   sync.Mutex
	self map[string]time.Time
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, log: log, self: map[string]time.Time{}}, nil
}

func (s *FileStore) path(key string) string { return filepath.Join(s.dir, key+".json") }

// Get reads the file for key. Missing files are (nil, false, nil).
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set writes the blob for key with owner-only permissions.
func (s *FileStore) Set(key string, data []byte) error {
	s.markSelf(key)
	return os.WriteFile(s.path(key), data, 0o600)
}

// Delete removes the file for key; absent files are a no-op.
func (s *FileStore) Delete(key string) error {
	s.markSelf(key)
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) markSelf(key string) {
	s.mu.Lock()
	s.self[key] = time.Now()
	s.mu.Unlock()
}

func (s *FileStore) isSelf(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.self[key]
	return ok && time.Since(t) < selfWindow
}

// Watch reports file changes made by other processes on the same data dir.
func (s *FileStore) Watch(ctx context.Context) (<-chan Event, func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	out := make(chan Event, 8)
	stopOnce := sync.Once{}
	stop := func() { stopOnce.Do(func() { _ = w.Close() }) }

	go func() {
		defer close(out)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Ext(ev.Name) != ".json" {
					continue
				}
				key := filepath.Base(ev.Name)
				key = key[:len(key)-len(".json")]
				if s.isSelf(key) {
					continue
				}
				e := Event{Key: key, Removed: ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)}
				select {
				case out <- e:
				default:
					// best-effort delivery, as browser storage events are
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn("file watch error", zap.Error(err))
			}
		}
	}()
	return out, stop, nil
}
