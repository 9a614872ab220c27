package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"mediafeed/api/internal/models"
)

// FileStore keeps the whole feed in one JSON document. Every access
// takes the mutex, so the read-modify-write in InsertAtHead is
// serialized through a single writer and the lost-update race of a
// bare file cannot happen within the process.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens (or bootstraps) the feed document at path. When
// the document does not exist yet and a seed file is provided, the
// seed content becomes the initial feed.
func NewFileStore(path, seedPath string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &FileStore{path: path}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && seedPath != "" {
		if seed, err := os.ReadFile(seedPath); err == nil {
			var items []models.MediaItem
			if err := json.Unmarshal(seed, &items); err != nil {
				return nil, fmt.Errorf("parse seed feed: %w", err)
			}
			if err := s.write(items); err != nil {
				return nil, fmt.Errorf("bootstrap feed: %w", err)
			}
		}
	}

	return s, nil
}

func (s *FileStore) InsertAtHead(ctx context.Context, item models.MediaItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}
	items = append([]models.MediaItem{item}, items...)
	return s.write(items)
}

func (s *FileStore) ReadAll(ctx context.Context) ([]models.MediaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) FindByID(ctx context.Context, id int64) (models.MediaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return models.MediaItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return models.MediaItem{}, ErrNotFound
}

func (s *FileStore) List(ctx context.Context, q ListQuery) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return Page{}, err
	}
	return paginate(filterByType(items, q.Type), q.Page, q.PageSize), nil
}

func (s *FileStore) Trim(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return 0, err
	}
	if len(items) <= max {
		return 0, nil
	}
	removed := len(items) - max
	if err := s.write(items[:max]); err != nil {
		return 0, err
	}
	return removed, nil
}

// read returns the full document; a missing file is the first-run
// case and means an empty feed, never an error.
func (s *FileStore) read() ([]models.MediaItem, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.MediaItem{}, nil
		}
		return nil, fmt.Errorf("read feed: %w", err)
	}

	var items []models.MediaItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return items, nil
}

// write replaces the document through a temp file and rename so a
// crash mid-write never leaves a torn feed behind.
func (s *FileStore) write(items []models.MediaItem) error {
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".media-*.json")
	if err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write feed: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}
