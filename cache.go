package pubcms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubcms/cms"
)

// ErrNotFound is returned when a requested post does not exist in the CMS.
var ErrNotFound = cms.ErrNotFound

// defaultMaxListEntries bounds the in-memory list layer. List keys come from
// query parameters, so the map must not grow with request variety.
const defaultMaxListEntries = 256

type cachedList struct {
	list    cms.PostList
	fetched time.Time
}

type cachedPost struct {
	post    cms.PostResponse
	fetched time.Time
}

// ContentCache is an in-memory TTL cache in front of the CMS client. Every
// fresh response is also written to the snapshot store so the site keeps
// serving content while the CMS is down. A non-positive TTL disables the
// in-memory layer but keeps the snapshot fallback.
type ContentCache struct {
	mu       sync.RWMutex
	lists    map[string]cachedList
	posts    map[string]cachedPost
	ttl      time.Duration
	maxLists int
	client   cms.Client
	store    *Store
	logger   echo.Logger
	now      func() time.Time
}

// NewContentCache creates a ContentCache. store may be nil.
func NewContentCache(client cms.Client, store *Store, ttl time.Duration, logger echo.Logger) *ContentCache {
	return &ContentCache{
		lists:    make(map[string]cachedList),
		posts:    make(map[string]cachedPost),
		ttl:      ttl,
		maxLists: defaultMaxListEntries,
		client:   client,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *ContentCache) fresh(fetched time.Time) bool {
	return c.ttl > 0 && c.now().Sub(fetched) < c.ttl
}

// Invalidate clears the in-memory layer so the next read goes to the CMS.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.lists = make(map[string]cachedList)
	c.posts = make(map[string]cachedPost)
	c.mu.Unlock()
}

// cacheableList reports whether a list response is worth keeping. Empty pages
// past the end and filters matching nothing are not.
func cacheableList(opts cms.ListOptions, list cms.PostList) bool {
	if len(list.Data) > 0 {
		return true
	}
	return opts.Page <= 1 && opts.TagSlug == "" && opts.CategorySlug == "" && opts.AuthorSlug == ""
}

// storeList adds a list entry, evicting expired entries and then the oldest
// one when the layer is full.
func (c *ContentCache) storeList(key string, list cms.PostList) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lists[key]; c.maxLists > 0 && !ok && len(c.lists) >= c.maxLists {
		for k, e := range c.lists {
			if !c.fresh(e.fetched) {
				delete(c.lists, k)
			}
		}
		for len(c.lists) >= c.maxLists {
			var oldest string
			var oldestAt time.Time
			for k, e := range c.lists {
				if oldest == "" || e.fetched.Before(oldestAt) {
					oldest, oldestAt = k, e.fetched
				}
			}
			delete(c.lists, oldest)
		}
	}
	c.lists[key] = cachedList{list: list, fetched: c.now()}
}

func listKey(opts cms.ListOptions) string {
	return fmt.Sprintf("list:%d:%d:%s:%s:%s:%t", opts.Page, opts.PageSize, opts.TagSlug, opts.CategorySlug, opts.AuthorSlug, opts.ExcludeBody)
}

func postKey(slug string) string {
	return "post:" + slug
}

// ListPosts returns a page of posts. The bool result is true when the page
// was served from a stale copy because the CMS request failed.
func (c *ContentCache) ListPosts(ctx context.Context, opts cms.ListOptions) (cms.PostList, bool, error) {
	if opts.Preview {
		list, err := c.client.ListPosts(ctx, opts)
		return list, false, err
	}

	key := listKey(opts)
	c.mu.RLock()
	entry, ok := c.lists[key]
	c.mu.RUnlock()
	if ok && c.fresh(entry.fetched) {
		return entry.list, false, nil
	}

	list, err := c.client.ListPosts(ctx, opts)
	if err == nil {
		if cacheableList(opts, list) {
			c.storeList(key, list)
			c.saveSnapshot(key, list)
		}
		return list, false, nil
	}
	if !fallbackAllowed(err) {
		return cms.PostList{}, false, err
	}

	if ok {
		c.logger.Warnf("cms list failed, serving cached copy from %s: %v", entry.fetched.Format(time.RFC3339), err)
		return entry.list, true, nil
	}
	var snap cms.PostList
	if fetched, serr := c.loadSnapshot(key, &snap); serr == nil {
		c.logger.Warnf("cms list failed, serving snapshot from %s: %v", fetched.Format(time.RFC3339), err)
		return snap, true, nil
	}
	return cms.PostList{}, false, err
}

// GetPost returns a single post by slug, with the same stale semantics as
// ListPosts. A CMS 404 is returned as ErrNotFound and never masked.
func (c *ContentCache) GetPost(ctx context.Context, slug string, preview bool) (cms.PostResponse, bool, error) {
	if preview {
		post, err := c.client.GetPost(ctx, slug, cms.GetOptions{Preview: true})
		return post, false, err
	}

	key := postKey(slug)
	c.mu.RLock()
	entry, ok := c.posts[key]
	c.mu.RUnlock()
	if ok && c.fresh(entry.fetched) {
		return entry.post, false, nil
	}

	post, err := c.client.GetPost(ctx, slug, cms.GetOptions{})
	if err == nil {
		c.mu.Lock()
		c.posts[key] = cachedPost{post: post, fetched: c.now()}
		c.mu.Unlock()
		c.saveSnapshot(key, post)
		return post, false, nil
	}
	if errors.Is(err, cms.ErrNotFound) {
		c.mu.Lock()
		delete(c.posts, key)
		c.mu.Unlock()
		c.deleteSnapshot(key)
		return cms.PostResponse{}, false, err
	}
	if !fallbackAllowed(err) {
		return cms.PostResponse{}, false, err
	}

	if ok {
		c.logger.Warnf("cms get %q failed, serving cached copy from %s: %v", slug, entry.fetched.Format(time.RFC3339), err)
		return entry.post, true, nil
	}
	var snap cms.PostResponse
	if fetched, serr := c.loadSnapshot(key, &snap); serr == nil {
		c.logger.Warnf("cms get %q failed, serving snapshot from %s: %v", slug, fetched.Format(time.RFC3339), err)
		return snap, true, nil
	}
	return cms.PostResponse{}, false, err
}

// fallbackAllowed is false for errors a stale copy cannot fix.
func fallbackAllowed(err error) bool {
	return !errors.Is(err, cms.ErrNotFound) &&
		!errors.Is(err, cms.ErrInvalidRequest) &&
		!errors.Is(err, context.Canceled)
}

func (c *ContentCache) saveSnapshot(key string, v any) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveSnapshot(key, v, c.now()); err != nil {
		c.logger.Errorf("save snapshot %s: %v", key, err)
	}
}

func (c *ContentCache) loadSnapshot(key string, v any) (time.Time, error) {
	if c.store == nil {
		return time.Time{}, ErrSnapshotMissing
	}
	return c.store.LoadSnapshot(key, v)
}

func (c *ContentCache) deleteSnapshot(key string) {
	if c.store == nil {
		return
	}
	if err := c.store.DeleteSnapshot(key); err != nil {
		c.logger.Errorf("delete snapshot %s: %v", key, err)
	}
}
