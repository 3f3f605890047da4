package feed

import (
	"context"

	"golang.org/x/sync/errgroup"

	"magpie/pkg/logger"
	"magpie/pkg/twitter"
)

// Client is the full API surface the pipeline consumes
type Client interface {
	LikesClient
	UserClient
}

// Progress receives pipeline milestones for status display. Either
// callback may be nil.
type Progress struct {
	// PageFetched is called after each page of liked tweets arrives
	PageFetched func(pages int)

	// RefsFound is called with the running total of extracted images
	RefsFound func(total int)
}

// Pipeline walks a user's liked tweets and enriches every page into
// image references. Page fetches are strictly sequential because each
// cursor only exists once the previous page has returned; enrichment
// of the collected pages then runs concurrently, sharing one username
// cache.
type Pipeline struct {
	client   Client
	enricher *Enricher
	logger   logger.Logger
}

// NewPipeline creates a pipeline over the given API client
func NewPipeline(client Client, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{
		client:   client,
		enricher: NewEnricher(client, log),
		logger:   log,
	}
}

// LikedImageRefs fetches every page of the user's liked tweets and
// returns all extracted image references, in feed order. With sample
// set, only the first page is processed. An invariant or transport
// failure on any page aborts the whole walk.
func (p *Pipeline) LikedImageRefs(ctx context.Context, userID string, sample bool, progress Progress) ([]ImageRef, error) {
	walker := NewWalker(p.client, userID)

	var pages []*twitter.Page
	for {
		page, err := walker.Next(ctx)
		if err != nil {
			return nil, err
		}
		if page == nil {
			break
		}
		pages = append(pages, page)
		if progress.PageFetched != nil {
			progress.PageFetched(len(pages))
		}
		if sample {
			break
		}
	}

	p.logger.InfoWithFields("feed walk complete", map[string]interface{}{
		"user_id": userID,
		"pages":   len(pages),
	})

	// Enrich pages concurrently. Results land in per-page slots so
	// feed order survives the unordered completion.
	perPage := make([][]ImageRef, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			refs, err := p.enricher.ProcessPage(gctx, page)
			if err != nil {
				return err
			}
			perPage[i] = refs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var refs []ImageRef
	for _, pageRefs := range perPage {
		refs = append(refs, pageRefs...)
		if progress.RefsFound != nil {
			progress.RefsFound(len(refs))
		}
	}

	p.logger.InfoWithFields("enrichment complete", map[string]interface{}{
		"user_id": userID,
		"images":  len(refs),
		"authors": p.enricher.Cache().Len(),
	})
	return refs, nil
}
