package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magpie/pkg/errors"
	"magpie/pkg/feed"
	"magpie/pkg/logger"
	"magpie/pkg/storage"
)

// fakeFetcher serves canned bytes per URL and tracks in-flight fetches
type fakeFetcher struct {
	data     map[string][]byte
	errs     map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeFetcher) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxSeen.Load()
		if current <= max || f.maxSeen.CompareAndSwap(max, current) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if data, ok := f.data[url]; ok {
		return data, nil
	}
	return nil, errors.Newf(errors.KindTransport, "no fixture for %s", url)
}

func makeRefs(n int) []feed.ImageRef {
	refs := make([]feed.ImageRef, n)
	for i := range refs {
		refs[i] = feed.ImageRef{
			Username:  "user",
			TweetID:   fmt.Sprintf("%d", i),
			CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Name:      fmt.Sprintf("img%d.jpg", i),
			URL:       fmt.Sprintf("https://pbs.twimg.com/media/img%d.jpg", i),
		}
	}
	return refs
}

func fixturesFor(refs []feed.ImageRef) map[string][]byte {
	data := make(map[string][]byte, len(refs))
	for _, ref := range refs {
		data[ref.URL] = []byte("bytes of " + ref.Name)
	}
	return data
}

func TestPoolDownloadsEverything(t *testing.T) {
	refs := makeRefs(10)
	fetcher := &fakeFetcher{data: fixturesFor(refs)}
	dir := t.TempDir()
	store, err := storage.NewManager(dir)
	require.NoError(t, err)

	pool := NewPool(4, fetcher, store, logger.NewTestLogger())
	outcomes := pool.Run(context.Background(), refs)

	require.Len(t, outcomes, len(refs))
	assert.Zero(t, FailureCount(outcomes))

	// Outcomes are in input order regardless of completion order
	for i, outcome := range outcomes {
		assert.Equal(t, refs[i].TweetID, outcome.Ref.TweetID)
		assert.NoError(t, outcome.Err)
		assert.Greater(t, outcome.Size, 0)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(refs))
}

func TestPoolRespectsConcurrencyCeiling(t *testing.T) {
	refs := makeRefs(24)
	fetcher := &fakeFetcher{
		data:  fixturesFor(refs),
		delay: 20 * time.Millisecond,
	}
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	const workers = 3
	pool := NewPool(workers, fetcher, store, logger.NewTestLogger())
	outcomes := pool.Run(context.Background(), refs)

	assert.Zero(t, FailureCount(outcomes))
	assert.LessOrEqual(t, fetcher.maxSeen.Load(), int32(workers),
		"in-flight downloads exceeded the worker count")
}

func TestPoolIsolatesFailures(t *testing.T) {
	refs := makeRefs(6)
	fetcher := &fakeFetcher{data: fixturesFor(refs), errs: map[string]error{
		refs[1].URL: errors.New(errors.KindTransport, "broken link"),
		refs[4].URL: errors.New(errors.KindTransport, "timeout"),
	}}
	dir := t.TempDir()
	store, err := storage.NewManager(dir)
	require.NoError(t, err)

	pool := NewPool(2, fetcher, store, logger.NewTestLogger())
	outcomes := pool.Run(context.Background(), refs)

	assert.Equal(t, 2, FailureCount(outcomes))
	assert.Error(t, outcomes[1].Err)
	assert.Error(t, outcomes[4].Err)
	for _, i := range []int{0, 2, 3, 5} {
		assert.NoError(t, outcomes[i].Err, "sibling download %d must not be affected", i)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestPoolOnComplete(t *testing.T) {
	refs := makeRefs(5)
	fetcher := &fakeFetcher{data: fixturesFor(refs)}
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	var mu sync.Mutex
	var completed int
	pool := NewPool(2, fetcher, store, logger.NewTestLogger())
	pool.OnComplete = func(outcome Outcome) {
		mu.Lock()
		completed++
		mu.Unlock()
	}

	pool.Run(context.Background(), refs)
	assert.Equal(t, len(refs), completed)
}

func TestPoolCancellation(t *testing.T) {
	refs := makeRefs(50)
	fetcher := &fakeFetcher{
		data:  fixturesFor(refs),
		delay: 10 * time.Millisecond,
	}
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(25 * time.Millisecond)
		cancel()
	}()

	pool := NewPool(2, fetcher, store, logger.NewTestLogger())
	outcomes := pool.Run(ctx, refs)

	require.Len(t, outcomes, len(refs))
	failed := FailureCount(outcomes)
	assert.Greater(t, failed, 0, "cancellation should mark unstarted items failed")
	assert.Less(t, failed, len(refs), "items admitted before cancellation still complete")
}

func TestDownloadAll(t *testing.T) {
	t.Run("creates the destination and downloads", func(t *testing.T) {
		refs := makeRefs(3)
		fetcher := &fakeFetcher{data: fixturesFor(refs)}
		dir := filepath.Join(t.TempDir(), "downloads")

		outcomes, err := DownloadAll(context.Background(), fetcher, refs, 2, dir, logger.NewTestLogger())
		require.NoError(t, err)
		assert.Zero(t, FailureCount(outcomes))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("destination collides with a file", func(t *testing.T) {
		refs := makeRefs(3)
		fetcher := &fakeFetcher{data: fixturesFor(refs)}
		file := filepath.Join(t.TempDir(), "blocked")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

		outcomes, err := DownloadAll(context.Background(), fetcher, refs, 2, file, logger.NewTestLogger())
		assert.Nil(t, outcomes)
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindSetup))

		// No fetch happens when setup fails
		assert.Zero(t, fetcher.maxSeen.Load())
	})
}

func TestFailureCount(t *testing.T) {
	outcomes := []Outcome{
		{},
		{Err: errors.New(errors.KindTransport, "x")},
		{},
		{Err: errors.New(errors.KindLocalIO, "y")},
	}
	assert.Equal(t, 2, FailureCount(outcomes))
	assert.Zero(t, FailureCount(nil))
}
