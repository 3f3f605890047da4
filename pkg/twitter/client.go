package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "magpie/pkg/errors"
	"magpie/pkg/logger"
)

// Client is a typed Twitter v2 API client authenticated with an OAuth2
// bearer token. Every method returns either a typed response or a
// kind-tagged error; callers never see raw HTTP details.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a new API client for the given access token
func NewClient(accessToken string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    BaseURL,
		token:      accessToken,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "magpie/1.0",
		},
		logger: log,
	}
}

// SetBaseURL overrides the API host. Used by tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// SetHeader sets a custom header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Me fetches the authenticated user
func (c *Client) Me(ctx context.Context) (*User, error) {
	return c.getUser(ctx, MeURL(c.baseURL))
}

// GetUserByUsername fetches a user by handle
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return c.getUser(ctx, UserByUsernameURL(c.baseURL, username))
}

// GetUserByID fetches a user by numeric id
func (c *Client) GetUserByID(ctx context.Context, id string) (*User, error) {
	return c.getUser(ctx, UserByIDURL(c.baseURL, id))
}

func (c *Client) getUser(ctx context.Context, endpoint string) (*User, error) {
	var resp UserResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, apperrors.Newf(apperrors.KindAPIInvariant,
			"user response from %s has no data object", endpoint)
	}
	if resp.Data.ID == "" || resp.Data.Username == "" {
		return nil, apperrors.Newf(apperrors.KindAPIInvariant,
			"user response from %s is missing id or username", endpoint)
	}
	return resp.Data, nil
}

// GetLikedTweets fetches one page of a user's liked tweets. An empty
// cursor requests the first page.
func (c *Client) GetLikedTweets(ctx context.Context, userID, cursor string) (*Page, error) {
	var page Page
	if err := c.getJSON(ctx, LikedTweetsURL(c.baseURL, userID, cursor), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DownloadImage fetches the raw bytes of an image URL. Media hosts do
// not require authentication, so no bearer header is attached.
func (c *Client) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.KindTransport, err, "building request for %s", url)
	}
	req.Header.Set("User-Agent", c.headers["User-Agent"])

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.KindTransport, err, "fetching %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Newf(apperrors.KindTransport,
			"fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.KindTransport, err, "reading body of %s", url)
	}

	c.logger.DebugWithFields("image downloaded", map[string]interface{}{
		"url":      url,
		"size":     len(data),
		"duration": time.Since(start),
	})
	return data, nil
}

// getJSON performs an authenticated GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, endpoint string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.Wrapf(apperrors.KindTransport, err, "building request for %s", endpoint)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending API request", map[string]interface{}{
		"method": req.Method,
		"url":    endpoint,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrapf(apperrors.KindTransport, err, "requesting %s", endpoint)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("API request completed", map[string]interface{}{
		"url":      endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.Newf(apperrors.KindTransport,
			"API returned status %d for %s: %s", resp.StatusCode, endpoint, truncate(string(body), 200))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return apperrors.Wrapf(apperrors.KindAPIInvariant, err, "decoding response from %s", endpoint)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
