package feed

import (
	"context"

	apperrors "magpie/pkg/errors"
	"magpie/pkg/twitter"
)

// LikesClient is the slice of the API client the walker needs
type LikesClient interface {
	GetLikedTweets(ctx context.Context, userID, cursor string) (*twitter.Page, error)
}

// Walker produces the pages of a user's liked tweets one at a time.
// Pagination is strictly sequential: the request for page N+1 carries
// the cursor observed on page N, so no page is ever requested early.
// A walker is single-use; each walk performs fresh network calls.
type Walker struct {
	client LikesClient
	userID string
	cursor string
	pages  int
	done   bool
}

// NewWalker creates a walker over the given user's liked tweets
func NewWalker(client LikesClient, userID string) *Walker {
	return &Walker{client: client, userID: userID}
}

// Next fetches the next page, or returns (nil, nil) once the cursor
// chain is exhausted. A page with no data and no next cursor is the
// normal end of the feed; a page with no data that still advertises a
// cursor violates the pagination contract and fails the walk.
func (w *Walker) Next(ctx context.Context) (*twitter.Page, error) {
	if w.done {
		return nil, nil
	}

	page, err := w.client.GetLikedTweets(ctx, w.userID, w.cursor)
	if err != nil {
		return nil, err
	}

	if len(page.Data) == 0 {
		if token := page.NextToken(); token != "" {
			return nil, apperrors.Newf(apperrors.KindAPIInvariant,
				"terminal page has no data but advertises next cursor %q", token)
		}
		w.done = true
		return nil, nil
	}

	w.pages++
	w.cursor = page.NextToken()
	if w.cursor == "" {
		w.done = true
	}
	return page, nil
}

// Pages returns how many non-empty pages have been fetched so far
func (w *Walker) Pages() int {
	return w.pages
}
