package cms

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// DefaultBaseURL is the hosted ButterCMS API root.
const DefaultBaseURL = "https://api.buttercms.com/v2"

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
	maxSlugLen     = 256
)

var validate = validator.New()

// Client is the read side of the CMS used by the web app.
type Client interface {
	ListPosts(ctx context.Context, opts ListOptions) (PostList, error)
	GetPost(ctx context.Context, slug string, opts GetOptions) (PostResponse, error)
}

// HTTPClient talks to the CMS over HTTPS with a static read token.
type HTTPClient struct {
	baseURL   string
	token     string
	userAgent string
	client    *http.Client
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(u string) ClientOption {
	return func(c *HTTPClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the overall per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) ClientOption {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// NewHTTPClient returns a client authenticated with token.
func NewHTTPClient(token string, opts ...ClientOption) (*HTTPClient, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("cms: api token is required")
	}
	c := &HTTPClient{
		baseURL:   DefaultBaseURL,
		token:     token,
		userAgent: "pubcms",
		client: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListPosts fetches one page of posts.
func (c *HTTPClient) ListPosts(ctx context.Context, opts ListOptions) (PostList, error) {
	if err := validate.Struct(opts); err != nil {
		return PostList{}, errors.Wrap(ErrInvalidRequest, err.Error())
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(opts.Page))
	q.Set("page_size", strconv.Itoa(opts.PageSize))
	if opts.TagSlug != "" {
		q.Set("tag_slug", opts.TagSlug)
	}
	if opts.CategorySlug != "" {
		q.Set("category_slug", opts.CategorySlug)
	}
	if opts.AuthorSlug != "" {
		q.Set("author_slug", opts.AuthorSlug)
	}
	if opts.ExcludeBody {
		q.Set("exclude_body", "true")
	}
	if opts.Preview {
		q.Set("preview", "1")
	}

	var list PostList
	if err := c.get(ctx, "/posts/", q, &list); err != nil {
		return PostList{}, errors.WithMessagef(err, "list posts page %d", opts.Page)
	}
	return list, nil
}

// GetPost fetches a single post by slug.
func (c *HTTPClient) GetPost(ctx context.Context, slug string, opts GetOptions) (PostResponse, error) {
	if err := validate.Var(slug, "required,max="+strconv.Itoa(maxSlugLen)); err != nil {
		return PostResponse{}, errors.Wrap(ErrInvalidRequest, "slug: "+err.Error())
	}
	// "." and ".." survive path escaping and would address another endpoint.
	if strings.Trim(slug, ".") == "" {
		return PostResponse{}, errors.Wrapf(ErrInvalidRequest, "slug %q", slug)
	}
	q := url.Values{}
	if opts.Preview {
		q.Set("preview", "1")
	}

	var resp PostResponse
	if err := c.get(ctx, "/posts/"+url.PathEscape(slug)+"/", q, &resp); err != nil {
		return PostResponse{}, errors.WithMessagef(err, "get post %q", slug)
	}
	return resp, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("auth_token", c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error embeds the full URL, auth token included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = c.baseURL + path
		}
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.WithStack(ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.WithStack(&APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		})
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "cms: decode response")
	}
	return nil
}
