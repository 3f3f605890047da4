package twitter

import (
	"fmt"
	"net/url"
)

const (
	// BaseURL is the Twitter v2 API host
	BaseURL = "https://api.twitter.com/2"

	// MaxPageSize is the largest page the liked-tweets endpoint allows
	MaxPageSize = 100
)

// Field selections for the liked-tweets request shape. The enricher's
// invariants depend on exactly these fields being requested.
const (
	likedTweetFields = "id,text,author_id,created_at,attachments,entities"
	likedExpansions  = "attachments.media_keys"
	likedMediaFields = "media_key,type,url"
	lookupUserFields = "username"
)

// MeURL constructs the URL for the authenticated user lookup
func MeURL(base string) string {
	return base + "/users/me"
}

// UserByUsernameURL constructs the URL for a username lookup
func UserByUsernameURL(base, username string) string {
	return fmt.Sprintf("%s/users/by/username/%s", base, url.PathEscape(username))
}

// UserByIDURL constructs the URL for a user-id lookup
func UserByIDURL(base, id string) string {
	params := url.Values{}
	params.Set("user.fields", lookupUserFields)
	return fmt.Sprintf("%s/users/%s?%s", base, url.PathEscape(id), params.Encode())
}

// LikedTweetsURL constructs the URL for one page of a user's liked
// tweets. An empty cursor requests the first page.
func LikedTweetsURL(base, userID, cursor string) string {
	params := url.Values{}
	params.Set("tweet.fields", likedTweetFields)
	params.Set("expansions", likedExpansions)
	params.Set("media.fields", likedMediaFields)
	params.Set("max_results", fmt.Sprintf("%d", MaxPageSize))
	if cursor != "" {
		params.Set("pagination_token", cursor)
	}
	return fmt.Sprintf("%s/users/%s/liked_tweets?%s", base, url.PathEscape(userID), params.Encode())
}
