package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DirSource watches a directory and serves the most recently written image
// file. Suits screenshot tools that drop numbered files into a folder.
type DirSource struct {
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	latest string
	err    error
}

// NewDirSource starts watching dir. Close must be called when done.
func NewDirSource(dir string) (*DirSource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	s := &DirSource{watcher: watcher}
	go s.run()
	return s, nil
}

func (s *DirSource) run() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isImagePath(ev.Name) {
				continue
			}
			s.mu.Lock()
			s.latest = ev.Name
			s.mu.Unlock()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}
}

func (s *DirSource) Snapshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	path, err := s.latest, s.err
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("directory watch failed: %w", err)
	}
	if path == "" {
		return nil, ErrNotReady
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("read %s: %w", path, readErr)
	}
	return data, nil
}

// Close stops the directory watch.
func (s *DirSource) Close() error {
	return s.watcher.Close()
}

func isImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
