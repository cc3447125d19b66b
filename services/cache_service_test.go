package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
)

func TestCacheService_TTLAndCleanup(t *testing.T) {
	cache := NewCacheServiceWithConfig(time.Minute, 10)
	cache.SetWithTTL("short", 1, time.Millisecond)
	cache.Set("long", 2)

	time.Sleep(5 * time.Millisecond)

	if _, ok := cache.Get("short"); ok {
		t.Error("expired entry returned")
	}
	if v, ok := cache.Get("long"); !ok || v.(int) != 2 {
		t.Error("live entry missing")
	}
	if removed := cache.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired removed %d", removed)
	}

	stats := cache.Stats()
	if stats.Size != 1 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheService_EvictsAtMaxSize(t *testing.T) {
	cache := NewCacheServiceWithConfig(time.Minute, 3)
	for i := 0; i < 5; i++ {
		cache.SetWithTTL(fmt.Sprintf("k%d", i), i, time.Duration(i+1)*time.Minute)
	}
	if cache.Size() != 3 {
		t.Fatalf("size = %d", cache.Size())
	}
	if _, ok := cache.Get("k0"); ok {
		t.Error("entry closest to expiry should have been evicted")
	}

	cache.Set("k4", "overwrite")
	if cache.Size() != 3 {
		t.Errorf("overwriting an existing key should not evict, size = %d", cache.Size())
	}
}

func TestCachedQueryService_InvalidatedByUpdate(t *testing.T) {
	ipo := newIPO("Cached", "2026-11-01")
	repo := newFakeRepository(ipo)
	query := newTestQueryService(repo)
	update := newTestUpdateService(repo, true)

	lister := NewListerFromConfig(query, update, NewCacheService(), shared.CacheConfig{Enabled: true})
	params := models.QueryParams{Tab: models.TabLive, Page: 1, Limit: 10}
	ctx := context.Background()

	if _, err := lister.ListIPOs(ctx, params); err != nil {
		t.Fatal(err)
	}
	before := repo.queries.Load()
	if _, err := lister.ListIPOs(ctx, params); err != nil {
		t.Fatal(err)
	}
	if repo.queries.Load() != before {
		t.Error("second identical query should be served from cache")
	}

	if _, err := update.UpdateIPO(ctx, ipo.ID, models.IPOUpdate{ApplyForListingGain: flag(true)}); err != nil {
		t.Fatal(err)
	}
	page, err := lister.ListIPOs(ctx, params)
	if err != nil {
		t.Fatal(err)
	}
	if !page.Data[0].ApplyForListingGain {
		t.Error("read after write returned the stale cached page")
	}
}

func TestCachedQueryService_KeyIncludesToday(t *testing.T) {
	repo := newFakeRepository(newIPO("Rollover", "2026-10-16"))
	query := newTestQueryService(repo)
	cached := NewCachedQueryService(query, NewCacheService())
	params := models.QueryParams{Tab: models.TabLive, Page: 1, Limit: 10}

	page, _ := cached.ListIPOs(context.Background(), params)
	if len(page.Data) != 1 {
		t.Fatal("expected the record on the live tab today")
	}

	query.WithClock(fixedClock("2026-10-17"))
	page, _ = cached.ListIPOs(context.Background(), params)
	if len(page.Data) != 0 {
		t.Error("cached live page leaked past the date boundary")
	}
}

func TestNewListerFromConfig_Disabled(t *testing.T) {
	repo := newFakeRepository()
	query := newTestQueryService(repo)
	lister := NewListerFromConfig(query, newTestUpdateService(repo, true), NewCacheService(), shared.CacheConfig{Enabled: false})
	if _, ok := lister.(*QueryService); !ok {
		t.Errorf("lister = %T, want *QueryService", lister)
	}
}

// invalidatingRepository runs onQuery during the first page read, standing in
// for an update that commits while a listing is in flight
type invalidatingRepository struct {
	*fakeRepository
	onQuery func()
	once    sync.Once
}

func (r *invalidatingRepository) FindPage(ctx context.Context, filter models.IPOFilter, offset, limit int) ([]models.IPO, error) {
	r.once.Do(r.onQuery)
	return r.fakeRepository.FindPage(ctx, filter, offset, limit)
}

func TestCachedQueryService_DoesNotStoreStalePage(t *testing.T) {
	repo := &invalidatingRepository{fakeRepository: newFakeRepository(newIPO("Racer", "2026-11-01"))}
	cache := NewCacheService()
	cached := NewCachedQueryService(newTestQueryService(repo), cache)
	repo.onQuery = func() { cached.InvalidateIPOCache("racer") }

	params := models.QueryParams{Tab: models.TabLive, Page: 1, Limit: 10}
	if _, err := cached.ListIPOs(context.Background(), params); err != nil {
		t.Fatal(err)
	}
	if cache.Size() != 0 {
		t.Error("page read across an invalidation was cached")
	}

	if _, err := cached.ListIPOs(context.Background(), params); err != nil {
		t.Fatal(err)
	}
	if cache.Size() != 1 {
		t.Errorf("size = %d, want the next read cached", cache.Size())
	}
}
