package twitter

import "time"

// User represents a Twitter user as returned by the v2 API
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
}

// Tweet represents a single tweet with the fields our request shapes ask for
type Tweet struct {
	ID          string       `json:"id"`
	Text        string       `json:"text,omitempty"`
	AuthorID    string       `json:"author_id,omitempty"`
	CreatedAt   *time.Time   `json:"created_at,omitempty"`
	Attachments *Attachments `json:"attachments,omitempty"`
	Entities    *Entities    `json:"entities,omitempty"`
}

// Attachments links a tweet to media objects in the response side-table
type Attachments struct {
	MediaKeys []string `json:"media_keys,omitempty"`
}

// Media kinds returned in the `type` field
const (
	MediaTypePhoto       = "photo"
	MediaTypeVideo       = "video"
	MediaTypeAnimatedGIF = "animated_gif"
)

// Media is an entry in the includes side-table, keyed by media key
type Media struct {
	MediaKey string `json:"media_key"`
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
}

// Entities carries the URL entities attached to a tweet's text
type Entities struct {
	URLs []URLEntity `json:"urls,omitempty"`
}

// URLEntity is a link in a tweet, possibly with preview images
type URLEntity struct {
	URL         string        `json:"url"`
	ExpandedURL string        `json:"expanded_url,omitempty"`
	Images      []EntityImage `json:"images,omitempty"`
}

// EntityImage is a preview image for a linked URL
type EntityImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Includes holds the side-tables of entities referenced by the page data
type Includes struct {
	Media []Media `json:"media,omitempty"`
	Users []User  `json:"users,omitempty"`
}

// Meta carries pagination state. An empty NextToken means the cursor
// chain is exhausted.
type Meta struct {
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token,omitempty"`
}

// Page is one batch of liked tweets plus its side-tables and cursor
type Page struct {
	Data     []Tweet   `json:"data,omitempty"`
	Includes *Includes `json:"includes,omitempty"`
	Meta     *Meta     `json:"meta,omitempty"`
	Errors   []APIErr  `json:"errors,omitempty"`
}

// NextToken returns the page's pagination cursor, or "" when this is
// the terminal page.
func (p *Page) NextToken() string {
	if p.Meta == nil {
		return ""
	}
	return p.Meta.NextToken
}

// UserResponse wraps a single-user lookup
type UserResponse struct {
	Data   *User    `json:"data,omitempty"`
	Errors []APIErr `json:"errors,omitempty"`
}

// APIErr is a partial-error object the v2 API attaches to responses
type APIErr struct {
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
	Type   string `json:"type,omitempty"`
}
