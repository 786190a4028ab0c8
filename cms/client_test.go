package cms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listBody = `{
  "meta": {"count": 2, "next_page": 2, "previous_page": null},
  "data": [
    {"slug": "first", "title": "First", "seo_title": "First SEO", "published": "2024-01-15T10:00:00Z",
     "author": {"first_name": "Ada", "last_name": "Lovelace", "slug": "ada"},
     "tags": [{"name": "Go", "slug": "go"}]},
    {"slug": "second", "title": "Second", "published": null}
  ]
}`

const postBody = `{
  "meta": {"next_post": {"slug": "second", "title": "Second"}, "previous_post": null},
  "data": {"slug": "my-slug", "title": "Mine", "seo_title": "SEO title",
           "meta_description": "desc", "featured_image": "https://cdn.example.com/a.png",
           "body": "<p>hello</p>"}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	s := httptest.NewServer(h)
	t.Cleanup(s.Close)
	c, err := NewHTTPClient("secret-token", WithBaseURL(s.URL+"/v2/"), WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c
}

func TestNewHTTPClientRequiresToken(t *testing.T) {
	_, err := NewHTTPClient("  ")
	assert.Error(t, err)
}

func TestListPostsSendsQuery(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/v2/posts/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "secret-token", q.Get("auth_token"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "10", q.Get("page_size"))
		assert.Equal(t, "go", q.Get("tag_slug"))
		assert.Empty(t, q.Get("preview"))
		_, _ = w.Write([]byte(listBody))
	})

	list, err := c.ListPosts(context.Background(), ListOptions{Page: 1, PageSize: 10, TagSlug: "go"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	require.Len(t, list.Data, 2)
	assert.Equal(t, "first", list.Data[0].Slug)
	assert.Equal(t, "First SEO", list.Data[0].SEOTitle)
	assert.Equal(t, "Ada Lovelace", list.Data[0].Author.Name())
	assert.Equal(t, 2024, list.Data[0].Published.Year())
	assert.True(t, list.Data[1].Published.IsZero())
	assert.Equal(t, 2, list.Meta.NextPage)
	assert.Equal(t, 0, list.Meta.PreviousPage)
}

func TestListPostsPreview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("preview"))
		assert.Equal(t, "true", r.URL.Query().Get("exclude_body"))
		_, _ = w.Write([]byte(`{"meta":{},"data":[]}`))
	})
	_, err := c.ListPosts(context.Background(), ListOptions{Page: 1, PageSize: 5, Preview: true, ExcludeBody: true})
	require.NoError(t, err)
}

func TestListPostsValidatesOptions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL)
	})
	tests := []ListOptions{
		{Page: 0, PageSize: 10},
		{Page: 1, PageSize: 0},
		{Page: 1, PageSize: 101},
	}
	for _, opts := range tests {
		_, err := c.ListPosts(context.Background(), opts)
		assert.ErrorIs(t, err, ErrInvalidRequest, "opts %+v", opts)
	}
}

func TestGetPost(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/posts/my-slug/", r.URL.Path)
		assert.Equal(t, "secret-token", r.URL.Query().Get("auth_token"))
		_, _ = w.Write([]byte(postBody))
	})

	resp, err := c.GetPost(context.Background(), "my-slug", GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "SEO title", resp.Data.SEOTitle)
	assert.Equal(t, "desc", resp.Data.MetaDescription)
	assert.Equal(t, "https://cdn.example.com/a.png", resp.Data.FeaturedImage)
	require.NotNil(t, resp.Meta.NextPost)
	assert.Equal(t, "second", resp.Meta.NextPost.Slug)
	assert.Nil(t, resp.Meta.PreviousPost)
}

func TestGetPostRejectsBadSlugs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})
	for _, slug := range []string{"", ".", "..", "...", strings.Repeat("a", 257)} {
		_, err := c.GetPost(context.Background(), slug, GetOptions{})
		assert.ErrorIs(t, err, ErrInvalidRequest, "slug %q", slug)
	}
}

func TestGetPostEscapesSlug(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/posts/a%2F..%2Fb/", r.URL.EscapedPath())
		_, _ = w.Write([]byte(postBody))
	})
	_, err := c.GetPost(context.Background(), "a/../b", GetOptions{})
	require.NoError(t, err)
}

func TestGetPostNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
	})
	_, err := c.GetPost(context.Background(), "missing", GetOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream err", http.StatusBadGateway)
	})
	_, err := c.ListPosts(context.Background(), ListOptions{Page: 1, PageSize: 10})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream err", apiErr.Body)
	assert.True(t, apiErr.Temporary())
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestInvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := c.ListPosts(context.Background(), ListOptions{Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestTimeoutHidesToken(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer s.Close()

	c, err := NewHTTPClient("secret-token", WithBaseURL(s.URL), WithTimeout(100*time.Millisecond))
	require.NoError(t, err)
	_, err = c.GetPost(context.Background(), "slow", GetOptions{})
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "secret-token"), "token leaked: %v", err)
}
