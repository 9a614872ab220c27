package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mediafeed/api/internal/models"
)

const pageKeyPrefix = "feed:page:"

// CachedStore is a read-through page cache in front of another Store.
// Pages are cached per (page, pageSize, type) for a short TTL and the
// whole prefix is dropped on every write, so readers never see a page
// older than the TTL and never see a stale head after their own write.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, log: log}
}

func (s *CachedStore) InsertAtHead(ctx context.Context, item models.MediaItem) error {
	if err := s.inner.InsertAtHead(ctx, item); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedStore) ReadAll(ctx context.Context) ([]models.MediaItem, error) {
	return s.inner.ReadAll(ctx)
}

func (s *CachedStore) FindByID(ctx context.Context, id int64) (models.MediaItem, error) {
	return s.inner.FindByID(ctx, id)
}

func (s *CachedStore) List(ctx context.Context, q ListQuery) (Page, error) {
	key := fmt.Sprintf("%s%d:%d:%s", pageKeyPrefix, q.Page, q.PageSize, q.Type)

	if raw, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var page Page
		if err := json.Unmarshal(raw, &page); err == nil {
			return page, nil
		}
		// Unparseable entry: fall through and overwrite it.
	}

	page, err := s.inner.List(ctx, q)
	if err != nil {
		return Page{}, err
	}

	if raw, err := json.Marshal(page); err == nil {
		if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			s.log.Warn().Err(err).Msg("feed page cache set failed")
		}
	}
	return page, nil
}

func (s *CachedStore) Trim(ctx context.Context, max int) (int, error) {
	removed, err := s.inner.Trim(ctx, max)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.invalidate(ctx)
	}
	return removed, nil
}

// invalidate drops every cached page. Cache trouble is logged and
// swallowed; the source of truth already has the write.
func (s *CachedStore) invalidate(ctx context.Context) {
	iter := s.client.Scan(ctx, 0, pageKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.log.Warn().Err(err).Msg("feed page cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn().Err(err).Msg("feed page cache invalidation failed")
	}
}
