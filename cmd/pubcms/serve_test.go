package main

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubcms"
	"github.com/eringen/pubcms/cms"
	"github.com/eringen/pubcms/views"
)

type emptyClient struct{}

func (emptyClient) ListPosts(context.Context, cms.ListOptions) (cms.PostList, error) {
	return cms.PostList{}, nil
}

func (emptyClient) GetPost(context.Context, string, cms.GetOptions) (cms.PostResponse, error) {
	return cms.PostResponse{}, cms.ErrNotFound
}

func newServeApp(t *testing.T, opts ...pubcms.Option) *pubcms.App {
	t.Helper()
	app := pubcms.New(pubcms.SiteConfig{
		Addr:         "127.0.0.1:0",
		DatabasePath: filepath.Join(t.TempDir(), "pubcms.db"),
	}, views.Default(), opts...)
	t.Cleanup(func() { app.Close() })
	return app
}

func TestServeShutsDownOnCancel(t *testing.T) {
	app := newServeApp(t, pubcms.WithContentClient(emptyClient{}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- serve(ctx, app) }()

	require.Eventually(t, func() bool { return app.Echo.ListenerAddr() != nil }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + app.Echo.ListenerAddr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServeCancelledBeforeStart(t *testing.T) {
	app := newServeApp(t, pubcms.WithContentClient(emptyClient{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- serve(ctx, app) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return for a cancelled context")
	}
}

func TestServeSetupErrorDoesNotListen(t *testing.T) {
	app := newServeApp(t)
	err := serve(context.Background(), app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CMSToken")
	assert.Nil(t, app.Echo.ListenerAddr())
}
