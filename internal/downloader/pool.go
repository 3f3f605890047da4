package downloader

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	apperrors "magpie/pkg/errors"
	"magpie/pkg/feed"
	"magpie/pkg/logger"
	"magpie/pkg/storage"
)

// ImageFetcher fetches raw image bytes
type ImageFetcher interface {
	DownloadImage(ctx context.Context, url string) ([]byte, error)
}

// FileStorage stores fetched files
type FileStorage interface {
	Save(r io.Reader, filename string) error
}

// Outcome is the per-item result of a download. Outcomes correspond
// index-for-index to the input references.
type Outcome struct {
	Ref      feed.ImageRef
	Err      error
	Size     int
	Duration time.Duration
}

// Pool downloads image references with a fixed parallelism ceiling.
// Failures are isolated per item: a broken link or unwritable file
// never cancels sibling downloads.
type Pool struct {
	workers int
	client  ImageFetcher
	storage FileStorage
	logger  logger.Logger

	// OnComplete, when set, is called after each item finishes,
	// successfully or not. Used for progress display.
	OnComplete func(outcome Outcome)
}

// NewPool creates a download pool with the given concurrency limit
func NewPool(workers int, client ImageFetcher, store FileStorage, log logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{
		workers: workers,
		client:  client,
		storage: store,
		logger:  log,
	}
}

type job struct {
	index int
	ref   feed.ImageRef
}

// Run downloads every reference and returns one outcome per input, in
// input order. All items are attempted even when some fail; the
// caller inspects the outcomes for partial failure. Cancelling the
// context stops admission of queued items and marks them failed.
func (p *Pool) Run(ctx context.Context, refs []feed.ImageRef) []Outcome {
	outcomes := make([]Outcome, len(refs))
	jobs := make(chan job)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobs {
				// Each slot is written by exactly one worker.
				outcomes[j.index] = p.process(ctx, workerID, j)
				if p.OnComplete != nil {
					p.OnComplete(outcomes[j.index])
				}
			}
		}(i)
	}

dispatch:
	for i, ref := range refs {
		select {
		case jobs <- job{index: i, ref: ref}:
		case <-ctx.Done():
			// Remaining items are never attempted; record why.
			for k := i; k < len(refs); k++ {
				outcomes[k] = Outcome{
					Ref: refs[k],
					Err: apperrors.Wrap(apperrors.KindTransport, "download cancelled", ctx.Err()),
				}
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (p *Pool) process(ctx context.Context, workerID int, j job) Outcome {
	start := time.Now()
	outcome := Outcome{Ref: j.ref}

	p.logger.DebugWithFields("worker processing download", map[string]interface{}{
		"worker_id": workerID,
		"tweet_id":  j.ref.TweetID,
		"url":       j.ref.URL,
	})

	data, err := p.client.DownloadImage(ctx, j.ref.URL)
	if err != nil {
		outcome.Err = err
		outcome.Duration = time.Since(start)
		p.logger.WithError(err).WithField("url", j.ref.URL).Error("download failed")
		return outcome
	}
	outcome.Size = len(data)

	if err := p.storage.Save(bytes.NewReader(data), j.ref.Filename()); err != nil {
		outcome.Err = err
		outcome.Duration = time.Since(start)
		p.logger.WithError(err).WithField("filename", j.ref.Filename()).Error("save failed")
		return outcome
	}

	outcome.Duration = time.Since(start)
	p.logger.DebugWithFields("download complete", map[string]interface{}{
		"worker_id": workerID,
		"filename":  j.ref.Filename(),
		"size":      outcome.Size,
		"duration":  outcome.Duration,
	})
	return outcome
}

// FailureCount counts the failed outcomes in a result set
func FailureCount(outcomes []Outcome) int {
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	return failed
}

// DownloadAll is the one-call form: ensure the destination directory
// exists, then fetch every reference with the given concurrency limit.
// Directory creation failure is a setup error returned before any
// network fetch happens.
func DownloadAll(ctx context.Context, client ImageFetcher, refs []feed.ImageRef, workers int, destDir string, log logger.Logger) ([]Outcome, error) {
	store, err := storage.NewManager(destDir)
	if err != nil {
		return nil, err
	}

	pool := NewPool(workers, client, store, log)
	return pool.Run(ctx, refs), nil
}
