package feed

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "magpie/pkg/errors"
	"magpie/pkg/logger"
	"magpie/pkg/twitter"
)

// UserClient is the slice of the API client the enricher needs
type UserClient interface {
	GetUserByID(ctx context.Context, id string) (*twitter.User, error)
}

// maxAuthorLookups bounds how many author lookups run concurrently
// within one page.
const maxAuthorLookups = 4

// Enricher turns raw liked-tweet pages into ImageRefs. Author ids are
// resolved to usernames through a shared cache so repeated authors
// cost one lookup per walk, and each tweet's attached media is matched
// against the page's includes side-table.
type Enricher struct {
	users  UserClient
	cache  *UsernameCache
	logger logger.Logger
}

// NewEnricher creates an enricher with a fresh username cache
func NewEnricher(users UserClient, log logger.Logger) *Enricher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Enricher{
		users:  users,
		cache:  NewUsernameCache(),
		logger: log,
	}
}

// Cache exposes the username cache, mainly for tests
func (e *Enricher) Cache() *UsernameCache {
	return e.cache
}

// ProcessPage extracts every downloadable image reference from one
// page. Fields the request shape guarantees (author id, created-at,
// the media side-table, media URLs) are invariants: if one is missing
// the whole page fails, because that signals a response contract
// change rather than ordinary absence. Media keys that point to no
// side-table entry are skipped silently; the API may omit unrelated
// media.
func (e *Enricher) ProcessPage(ctx context.Context, page *twitter.Page) ([]ImageRef, error) {
	if page == nil || len(page.Data) == 0 {
		return nil, nil
	}

	usernames, err := e.resolveAuthors(ctx, page.Data)
	if err != nil {
		return nil, err
	}

	mediaIndex, err := buildMediaIndex(page)
	if err != nil {
		return nil, err
	}

	var refs []ImageRef
	for i, tweet := range page.Data {
		if tweet.CreatedAt == nil {
			return nil, apperrors.Newf(apperrors.KindAPIInvariant,
				"tweet %s is missing created_at", tweet.ID)
		}

		base := ImageRef{
			Username:  usernames[i],
			TweetID:   tweet.ID,
			CreatedAt: *tweet.CreatedAt,
		}

		attached, err := extractAttachedPhotos(base, &tweet, mediaIndex)
		if err != nil {
			return nil, err
		}
		refs = append(refs, attached...)
		refs = append(refs, extractLinkPreviews(base, &tweet)...)
	}

	e.logger.DebugWithFields("page processed", map[string]interface{}{
		"tweets": len(page.Data),
		"images": len(refs),
	})
	return refs, nil
}

// resolveAuthors maps each tweet to its author's username, issuing at
// most maxAuthorLookups concurrent lookups for cache misses. No lock
// is held across a network call; racing misses both fetch and the
// last insert wins.
func (e *Enricher) resolveAuthors(ctx context.Context, tweets []twitter.Tweet) ([]string, error) {
	usernames := make([]string, len(tweets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxAuthorLookups)
	for i, tweet := range tweets {
		if tweet.AuthorID == "" {
			return nil, apperrors.Newf(apperrors.KindAPIInvariant,
				"tweet %s is missing author_id", tweet.ID)
		}
		i, authorID := i, tweet.AuthorID
		g.Go(func() error {
			username, err := e.resolveUsername(gctx, authorID)
			if err != nil {
				return err
			}
			usernames[i] = username
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return usernames, nil
}

func (e *Enricher) resolveUsername(ctx context.Context, authorID string) (string, error) {
	if name, ok := e.cache.Get(authorID); ok {
		return name, nil
	}

	user, err := e.users.GetUserByID(ctx, authorID)
	if err != nil {
		return "", err
	}

	e.cache.Put(authorID, user.Username)
	return user.Username, nil
}

// buildMediaIndex keys the page's included media by media key. The
// side-table is contractual whenever any tweet carries attachments.
func buildMediaIndex(page *twitter.Page) (map[string]twitter.Media, error) {
	hasAttachments := false
	for _, tweet := range page.Data {
		if tweet.Attachments != nil {
			hasAttachments = true
			break
		}
	}
	if !hasAttachments {
		return nil, nil
	}

	if page.Includes == nil || page.Includes.Media == nil {
		return nil, apperrors.New(apperrors.KindAPIInvariant,
			"page has media attachments but no includes.media side-table")
	}

	index := make(map[string]twitter.Media, len(page.Includes.Media))
	for _, media := range page.Includes.Media {
		index[media.MediaKey] = media
	}
	return index, nil
}

func extractAttachedPhotos(base ImageRef, tweet *twitter.Tweet, mediaIndex map[string]twitter.Media) ([]ImageRef, error) {
	if tweet.Attachments == nil {
		return nil, nil
	}
	if tweet.Attachments.MediaKeys == nil {
		return nil, apperrors.Newf(apperrors.KindAPIInvariant,
			"tweet %s has attachments but no media_keys", tweet.ID)
	}

	var refs []ImageRef
	for _, key := range tweet.Attachments.MediaKeys {
		media, ok := mediaIndex[key]
		if !ok {
			// The API is allowed to omit media unrelated to this
			// request shape; skip the key, keep the siblings.
			continue
		}
		if media.Type != twitter.MediaTypePhoto {
			continue
		}
		if media.URL == "" {
			return nil, apperrors.Newf(apperrors.KindAPIInvariant,
				"photo %s on tweet %s has no url", key, tweet.ID)
		}

		name, err := lastPathSegment(media.URL)
		if err != nil {
			return nil, err
		}

		ref := base
		ref.Name = name
		ref.URL = media.URL
		refs = append(refs, ref)
	}
	return refs, nil
}

// extractLinkPreviews pulls the largest preview image from each URL
// entity in the tweet text. The file extension comes from the image
// URL's `format` query parameter, defaulting to jpg.
func extractLinkPreviews(base ImageRef, tweet *twitter.Tweet) []ImageRef {
	if tweet.Entities == nil {
		return nil
	}

	var refs []ImageRef
	for _, entity := range tweet.Entities.URLs {
		if len(entity.Images) == 0 {
			continue
		}

		images := make([]twitter.EntityImage, len(entity.Images))
		copy(images, entity.Images)
		sort.SliceStable(images, func(i, j int) bool {
			return images[i].Height > images[j].Height
		})
		best := images[0]

		extension := "jpg"
		if u, err := url.Parse(best.URL); err == nil {
			if format := u.Query().Get("format"); format != "" {
				extension = format
			}
		}

		ref := base
		ref.Name = "url-link." + extension
		ref.URL = best.URL
		refs = append(refs, ref)
	}
	return refs
}

// lastPathSegment returns the final path segment of a media URL, which
// serves as the image's own filename.
func lastPathSegment(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", apperrors.Wrapf(apperrors.KindAPIInvariant, err, "media url %q is not parseable", raw)
	}
	path := strings.TrimSuffix(u.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 || idx == len(path)-1 {
		return "", apperrors.Newf(apperrors.KindAPIInvariant, "media url %q has no path segments", raw)
	}
	return path[idx+1:], nil
}
