package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guttosm/varpulse/internal/domain/models"
)

// fakeRedis is an in-process stand-in for the commands RedisStore issues.
type fakeRedis struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	index   map[string]float64
	failGet error
	pingErr error
	closed  bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values: map[string]string{},
		ttls:   map[string]time.Duration{},
		index:  map[string]float64{},
	}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) ZAdd(_ context.Context, _ string, members ...redis.Z) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range members {
		f.index[m.Member.(string)] = m.Score
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeRedis) ZRevRange(_ context.Context, _ string, start, stop int64) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.index))
	for id := range f.index {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return f.index[ids[i]] > f.index[ids[j]] })
	end := int64(len(ids))
	if stop >= 0 && stop+1 < end {
		end = stop + 1
	}
	if start > end {
		start = end
	}
	return redis.NewStringSliceResult(ids[start:end], nil)
}

func (f *fakeRedis) ZRem(_ context.Context, _ string, members ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range members {
		delete(f.index, m.(string))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.pingErr)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func sampleRuns() []models.Run {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var runs []models.Run
	for i := 0; i < 3; i++ {
		runs = append(runs, models.Run{
			ID:         fmt.Sprintf("run-%d", i),
			Status:     models.RunSucceeded,
			Mode:       "csv-files",
			TradeCount: int64(100 * (i + 1)),
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}
	return runs
}

func TestRunStores(t *testing.T) {
	stores := map[string]func() RunStore{
		"memory": func() RunStore { return NewMemoryStore() },
		"redis":  func() RunStore { return newRedisStore(newFakeRedis(), time.Hour) },
	}

	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := mk()
			for _, r := range sampleRuns() {
				if err := store.Save(ctx, r); err != nil {
					t.Fatalf("save %s: %v", r.ID, err)
				}
			}

			got, err := store.Get(ctx, "run-1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.TradeCount != 200 || !got.StartedAt.Equal(sampleRuns()[1].StartedAt) {
				t.Fatalf("unexpected run: %+v", got)
			}

			if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
				t.Fatalf("expected ErrRunNotFound, got %v", err)
			}

			list, err := store.List(ctx, 2)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 2 || list[0].ID != "run-2" || list[1].ID != "run-1" {
				t.Fatalf("expected newest two runs, got %+v", list)
			}

			all, _ := store.List(ctx, 0)
			if len(all) != 3 {
				t.Fatalf("expected 3 runs, got %d", len(all))
			}

			updated := got
			updated.Status = models.RunFailed
			if err := store.Save(ctx, updated); err != nil {
				t.Fatalf("update: %v", err)
			}
			got, _ = store.Get(ctx, "run-1")
			if got.Status != models.RunFailed {
				t.Fatalf("update not persisted: %+v", got)
			}

			if err := store.Ping(ctx); err != nil {
				t.Fatalf("ping: %v", err)
			}
		})
	}
}

func TestRedisStore_TTLAndPrune(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := newRedisStore(fake, 2*time.Hour)

	for _, r := range sampleRuns() {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if ttl := fake.ttls[runKey("run-0")]; ttl != 2*time.Hour {
		t.Fatalf("expected ttl 2h, got %v", ttl)
	}

	// run-0 value expired, its index entry remains
	delete(fake.values, runKey("run-0"))

	list, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 live runs, got %d", len(list))
	}
	if _, ok := fake.index["run-0"]; ok {
		t.Fatalf("expected expired run pruned from index")
	}

	if err := store.Close(); err != nil || !fake.closed {
		t.Fatalf("expected client closed, err=%v", err)
	}
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := newRedisStore(fake, -time.Second)
	if store.ttl != 0 {
		t.Fatalf("negative ttl should mean no expiry, got %v", store.ttl)
	}

	fake.failGet = errors.New("connection reset")
	if _, err := store.Get(ctx, "x"); err == nil || errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected transport error, got %v", err)
	}

	fake.values[runKey("bad")] = "{not json"
	fake.failGet = nil
	if _, err := store.Get(ctx, "bad"); err == nil {
		t.Fatalf("expected decode error")
	}

	fake.pingErr = errors.New("down")
	if err := store.Ping(ctx); err == nil {
		t.Fatalf("expected ping error")
	}
}
