package pubcms

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/a-h/templ"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubcms/cms"
)

// fakeClient is an in-memory cms.Client that records every call.
type fakeClient struct {
	mu        sync.Mutex
	listCalls []cms.ListOptions
	getCalls  []string
	getOpts   []cms.GetOptions
	list      cms.PostList
	posts     map[string]cms.PostResponse
	err       error
	panicMsg  string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		list: cms.PostList{
			Meta: cms.ListMeta{Count: 2},
			Data: []cms.Post{
				{Slug: "first", Title: "First", Summary: "one", Tags: []cms.Tag{{Name: "Go", Slug: "go"}}},
				{Slug: "second", Title: "Second", Summary: "two"},
			},
		},
		posts: map[string]cms.PostResponse{
			"my-slug": {Data: cms.Post{
				Slug:            "my-slug",
				Title:           "My Post",
				SEOTitle:        "SEO title",
				MetaDescription: "SEO description",
				FeaturedImage:   "https://cdn.example.com/featured.png",
				Body:            "<p>hello</p>",
			}},
		},
	}
}

func (f *fakeClient) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeClient) ListPosts(_ context.Context, opts cms.ListOptions) (cms.PostList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, opts)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return cms.PostList{}, f.err
	}
	if opts.Page > 1 {
		return cms.PostList{Meta: cms.ListMeta{Count: f.list.Meta.Count, PreviousPage: opts.Page - 1}}, nil
	}
	if opts.TagSlug == "" {
		return f.list, nil
	}
	var tagged []cms.Post
	for _, p := range f.list.Data {
		for _, t := range p.Tags {
			if t.Slug == opts.TagSlug {
				tagged = append(tagged, p)
				break
			}
		}
	}
	return cms.PostList{Meta: cms.ListMeta{Count: len(tagged)}, Data: tagged}, nil
}

func (f *fakeClient) GetPost(_ context.Context, slug string, opts cms.GetOptions) (cms.PostResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, slug)
	f.getOpts = append(f.getOpts, opts)
	if f.err != nil {
		return cms.PostResponse{}, f.err
	}
	p, ok := f.posts[slug]
	if !ok {
		return cms.PostResponse{}, errors.WithMessagef(errors.WithStack(cms.ErrNotFound), "get post %q", slug)
	}
	return p, nil
}

func (f *fakeClient) calls() (lists []cms.ListOptions, gets []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cms.ListOptions(nil), f.listCalls...), append([]string(nil), f.getCalls...)
}

// rendered captures the last Page handed to a view.
type rendered struct {
	mu   sync.Mutex
	page Page
}

func (r *rendered) set(p Page) {
	r.mu.Lock()
	r.page = p
	r.mu.Unlock()
}

func (r *rendered) last() Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.page
}

func text(format string, args ...any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	})
}

func testViews(r *rendered) ViewFuncs {
	return ViewFuncs{
		Home: func(p Page) templ.Component {
			r.set(p)
			return text("home title=%s", p.Meta.Title)
		},
		Blog: func(p Page, l BlogList) templ.Component {
			r.set(p)
			slugs := make([]string, 0, len(l.Posts))
			for _, post := range l.Posts {
				slugs = append(slugs, post.Slug)
			}
			return text("blog page=%d tag=%s stale=%t posts=%s", l.Page, l.Tag, l.Stale, strings.Join(slugs, ","))
		},
		Post: func(p Page, post cms.PostResponse) templ.Component {
			r.set(p)
			return text("post slug=%s title=%s desc=%s og=%s", post.Data.Slug, p.Meta.Title, p.Meta.Description, p.Meta.OG.Image)
		},
		PreviewLogin: func(p Page, showError bool) templ.Component {
			r.set(p)
			return text("preview error=%t previewing=%t csrf=%t", showError, p.Preview, p.CSRFToken != "")
		},
		NotFound: func(p Page) templ.Component {
			r.set(p)
			return text("not found")
		},
		ServerError: func(p Page) templ.Component {
			r.set(p)
			return text("server error")
		},
	}
}

func newTestApp(t *testing.T, client cms.Client, mutate func(*SiteConfig)) (*App, *rendered) {
	t.Helper()
	cfg := SiteConfig{
		Name:         "Test Blog",
		URL:          "https://blog.example.com/",
		Description:  "A test blog",
		RelAuthor:    "https://example.com/about",
		DatabasePath: filepath.Join(t.TempDir(), "pubcms.db"),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	r := &rendered{}
	a := New(cfg, testViews(r), WithContentClient(client))
	require.NoError(t, a.Setup())
	t.Cleanup(func() { a.Close() })
	return a, r
}
