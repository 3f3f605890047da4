package feed

import (
	"fmt"
	"time"
)

// ImageRef is a downloadable image extracted from a liked tweet. It is
// immutable once produced; the downloader consumes it and nothing
// reads it afterwards.
type ImageRef struct {
	// Username is the display handle of the tweet's author
	Username string

	// TweetID identifies the tweet the image belongs to
	TweetID string

	// CreatedAt is the tweet's creation timestamp
	CreatedAt time.Time

	// Name is the image's own filename: the last path segment of the
	// media URL, or a synthesized name for link preview images.
	Name string

	// URL is where the image bytes live
	URL string
}

// Filename is the on-disk identity of the reference: a composite of
// timestamp, author, tweet id and the image's own name. Distinct items
// always differ in at least one component, so composites never collide
// across items.
func (r ImageRef) Filename() string {
	return fmt.Sprintf("%s %s %s %s",
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.Username,
		r.TweetID,
		r.Name,
	)
}
