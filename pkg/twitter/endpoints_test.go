package twitter

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeURL(t *testing.T) {
	assert.Equal(t, "https://api.twitter.com/2/users/me", MeURL(BaseURL))
}

func TestUserByUsernameURL(t *testing.T) {
	assert.Equal(t,
		"https://api.twitter.com/2/users/by/username/jack",
		UserByUsernameURL(BaseURL, "jack"))
}

func TestUserByIDURL(t *testing.T) {
	u, err := url.Parse(UserByIDURL(BaseURL, "12"))
	require.NoError(t, err)

	assert.Equal(t, "/2/users/12", u.Path)
	assert.Equal(t, "username", u.Query().Get("user.fields"))
}

func TestLikedTweetsURL(t *testing.T) {
	t.Run("first page", func(t *testing.T) {
		u, err := url.Parse(LikedTweetsURL(BaseURL, "12", ""))
		require.NoError(t, err)

		assert.Equal(t, "/2/users/12/liked_tweets", u.Path)

		q := u.Query()
		assert.Equal(t, "100", q.Get("max_results"))
		assert.Equal(t, "attachments.media_keys", q.Get("expansions"))
		assert.Equal(t, "media_key,type,url", q.Get("media.fields"))
		assert.False(t, q.Has("pagination_token"))

		// The enricher relies on these fields being present in every page
		for _, field := range []string{"id", "author_id", "created_at", "attachments", "entities"} {
			assert.True(t, strings.Contains(q.Get("tweet.fields"), field),
				"tweet.fields must request %s", field)
		}
	})

	t.Run("subsequent page carries the cursor", func(t *testing.T) {
		u, err := url.Parse(LikedTweetsURL(BaseURL, "12", "cursor-abc"))
		require.NoError(t, err)
		assert.Equal(t, "cursor-abc", u.Query().Get("pagination_token"))
	})
}
