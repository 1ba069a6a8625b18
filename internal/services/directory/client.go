package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/verikyc/backend/internal/kycerrors"
	"github.com/verikyc/backend/internal/models"
)

// Client is the HTTP subject-directory client with an optional Redis cache
// in front of it.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewClient creates a directory client. cache may be nil, in which case every
// lookup goes to the directory.
func NewClient(baseURL string, timeout time.Duration, cache *redis.Client, cacheTTL time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// GetProfile fetches a subject profile, serving from the cache when possible.
func (c *Client) GetProfile(ctx context.Context, subjectType models.SubjectType, subjectID string) (*Profile, error) {
	key := cacheKey(subjectType, subjectID)
	if profile, ok := c.cached(ctx, key); ok {
		return profile, nil
	}

	endpoint := fmt.Sprintf("%s/profiles/%s/%s", c.baseURL, subjectType, url.PathEscape(subjectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, kycerrors.Upstream(err, "building directory request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, kycerrors.Upstream(err, "subject directory unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, kycerrors.NotFound("no directory profile for %s %s", subjectType, subjectID)
	case resp.StatusCode != http.StatusOK:
		return nil, kycerrors.Upstream(fmt.Errorf("status %d", resp.StatusCode), "subject directory request failed")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, kycerrors.Upstream(err, "reading directory response")
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, kycerrors.Upstream(err, "decoding directory response")
	}

	c.store(ctx, key, body)
	return &profile, nil
}

func cacheKey(subjectType models.SubjectType, subjectID string) string {
	return fmt.Sprintf("verikyc:profile:%s:%s", subjectType, subjectID)
}

func (c *Client) cached(ctx context.Context, key string) (*Profile, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("directory cache read failed: %v", err)
		}
		return nil, false
	}
	var profile Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

func (c *Client) store(ctx context.Context, key string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, body, c.cacheTTL).Err(); err != nil {
		log.Printf("directory cache write failed: %v", err)
	}
}

var _ Directory = (*Client)(nil)
