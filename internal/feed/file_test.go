package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"mediafeed/api/internal/models"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "media.json"), "")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return store
}

func imageItem(id int64) models.MediaItem {
	return models.MediaItem{
		ID:          id,
		Src:         fmt.Sprintf("data:image/png;base64,item%d", id),
		Alt:         "test image",
		Author:      "vertex",
		Type:        models.MediaTypeImage,
		AspectRatio: models.AspectRatioSquare,
		Prompt:      "test image",
	}
}

func videoItem(id int64) models.MediaItem {
	return models.MediaItem{
		ID:        id,
		Src:       fmt.Sprintf("https://example.com/video%d.mp4", id),
		Alt:       "test video",
		Author:    "seed",
		Type:      models.MediaTypeVideo,
		Thumbnail: "https://example.com/thumb.jpg",
	}
}

func TestFileStoreMissingFileIsEmptyFeed(t *testing.T) {
	store := newTestStore(t)

	items, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty feed, got %d items", len(items))
	}
}

func TestFileStoreInsertAtHead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		before, err := store.ReadAll(ctx)
		if err != nil {
			t.Fatalf("read all: %v", err)
		}

		if err := store.InsertAtHead(ctx, imageItem(id)); err != nil {
			t.Fatalf("insert %d: %v", id, err)
		}

		after, err := store.ReadAll(ctx)
		if err != nil {
			t.Fatalf("read all: %v", err)
		}
		if len(after) != len(before)+1 {
			t.Fatalf("expected %d items, got %d", len(before)+1, len(after))
		}
		if after[0].ID != id {
			t.Fatalf("expected head id %d, got %d", id, after[0].ID)
		}
	}
}

func TestFileStoreInsertRejectsInvalidItem(t *testing.T) {
	store := newTestStore(t)

	bad := imageItem(1)
	bad.Type = "gif"
	if err := store.InsertAtHead(context.Background(), bad); !errors.Is(err, models.ErrUnknownMediaType) {
		t.Fatalf("expected ErrUnknownMediaType, got %v", err)
	}
}

func TestFileStoreConcurrentInserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := store.InsertAtHead(ctx, imageItem(id)); err != nil {
				t.Errorf("insert %d: %v", id, err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	// Every write must survive: the mutex makes the read-modify-write
	// a single-writer section, so no update may be lost.
	items, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(items) != writers {
		t.Fatalf("lost updates: expected %d items, got %d", writers, len(items))
	}
	seen := map[int64]bool{}
	for _, item := range items {
		if seen[item.ID] {
			t.Fatalf("duplicate id %d", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestFileStoreFindByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for id := int64(1); id <= 5; id++ {
		if err := store.InsertAtHead(ctx, imageItem(id)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	for id := int64(1); id <= 5; id++ {
		item, err := store.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("find %d: %v", id, err)
		}
		if item.ID != id {
			t.Fatalf("expected id %d, got %d", id, item.ID)
		}
	}

	if _, err := store.FindByID(ctx, 999999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStorePaginationCoversFeedExactlyOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const total = 11
	for id := int64(1); id <= total; id++ {
		if err := store.InsertAtHead(ctx, imageItem(id)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}

	for pageSize := 1; pageSize <= total+1; pageSize++ {
		var collected []models.MediaItem
		page := 0
		for {
			result, err := store.List(ctx, ListQuery{Page: page, PageSize: pageSize})
			if err != nil {
				t.Fatalf("list page %d size %d: %v", page, pageSize, err)
			}
			collected = append(collected, result.Data...)
			if result.NextPage == nil {
				break
			}
			if *result.NextPage != page+1 {
				t.Fatalf("expected next page %d, got %d", page+1, *result.NextPage)
			}
			page = *result.NextPage
		}

		if len(collected) != len(all) {
			t.Fatalf("pageSize %d: collected %d items, want %d", pageSize, len(collected), len(all))
		}
		for i := range all {
			if collected[i].ID != all[i].ID {
				t.Fatalf("pageSize %d: item %d is id %d, want %d", pageSize, i, collected[i].ID, all[i].ID)
			}
		}
	}
}

func TestFileStoreListTypeFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Oldest first on insert, so the feed reads newest first:
	// video 5, image 4, video 3, image 2, video 1.
	for id := int64(1); id <= 5; id++ {
		var item models.MediaItem
		if id%2 == 1 {
			item = videoItem(id)
		} else {
			item = imageItem(id)
		}
		if err := store.InsertAtHead(ctx, item); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	page, err := store.List(ctx, ListQuery{Page: 0, PageSize: 2, Type: "video"})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(page.Data) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(page.Data))
	}
	if page.Data[0].ID != 5 || page.Data[1].ID != 3 {
		t.Fatalf("expected newest videos [5 3], got [%d %d]", page.Data[0].ID, page.Data[1].ID)
	}
	if page.NextPage == nil || *page.NextPage != 1 {
		t.Fatalf("expected nextPage 1, got %v", page.NextPage)
	}

	last, err := store.List(ctx, ListQuery{Page: 1, PageSize: 2, Type: "video"})
	if err != nil {
		t.Fatalf("list videos page 1: %v", err)
	}
	if len(last.Data) != 1 || last.Data[0].ID != 1 {
		t.Fatalf("expected final video [1], got %v", last.Data)
	}
	if last.NextPage != nil {
		t.Fatalf("expected end of feed, got nextPage %d", *last.NextPage)
	}
}

func TestFileStoreListPastEnd(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.InsertAtHead(ctx, imageItem(1)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	page, err := store.List(ctx, ListQuery{Page: 7, PageSize: 8})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 0 {
		t.Fatalf("expected empty page, got %d items", len(page.Data))
	}
	if page.NextPage != nil {
		t.Fatalf("expected no next page, got %d", *page.NextPage)
	}
}

func TestFileStoreTrim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for id := int64(1); id <= 10; id++ {
		if err := store.InsertAtHead(ctx, imageItem(id)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	removed, err := store.Trim(ctx, 4)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if removed != 6 {
		t.Fatalf("expected 6 removed, got %d", removed)
	}

	items, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items after trim, got %d", len(items))
	}
	// Newest records survive.
	if items[0].ID != 10 || items[3].ID != 7 {
		t.Fatalf("trim kept wrong window: head %d tail %d", items[0].ID, items[3].ID)
	}

	if removed, err := store.Trim(ctx, 0); err != nil || removed != 0 {
		t.Fatalf("trim with max 0 should be a no-op, got %d, %v", removed, err)
	}
}

func TestFileStoreSeedBootstrap(t *testing.T) {
	dir := t.TempDir()

	seed := []models.MediaItem{videoItem(2), imageItem(1)}
	raw, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	seedPath := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(seedPath, raw, 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	store, err := NewFileStore(filepath.Join(dir, "media.json"), seedPath)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	items, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(items) != 2 || items[0].ID != 2 {
		t.Fatalf("expected seeded feed [2 1], got %v", items)
	}

	// The seed only applies on first run; an existing feed wins.
	again, err := NewFileStore(filepath.Join(dir, "media.json"), seedPath)
	if err != nil {
		t.Fatalf("reopen file store: %v", err)
	}
	if err := again.InsertAtHead(context.Background(), imageItem(3)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	reopened, err := NewFileStore(filepath.Join(dir, "media.json"), seedPath)
	if err != nil {
		t.Fatalf("reopen file store: %v", err)
	}
	items, err = reopened.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("seed overwrote existing feed: got %d items", len(items))
	}
}
