// Package pubcms serves a blog whose posts live in a hosted headless CMS.
// It wires the page routes to the CMS client, caches responses, keeps a
// SQLite snapshot for when the CMS is unreachable, and renders user-provided
// templ components with per-page SEO metadata.
package pubcms

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	gommonlog "github.com/labstack/gommon/log"

	"github.com/eringen/pubcms/cms"
)

// ViewFuncs holds the templ components the App calls when rendering pages.
// Users own all markup; pubcms only supplies data.
type ViewFuncs struct {
	Home         func(page Page) templ.Component
	Blog         func(page Page, list BlogList) templ.Component
	Post         func(page Page, post cms.PostResponse) templ.Component
	PreviewLogin func(page Page, showError bool) templ.Component
	NotFound     func(page Page) templ.Component
	ServerError  func(page Page) templ.Component
}

// BlogList is the data behind the /blog view.
type BlogList struct {
	Posts    []cms.Post
	Meta     cms.ListMeta
	Page     int
	PageSize int
	Tag      string
	Stale    bool // served from the snapshot because the CMS failed
}

// App is the central pubcms application. It wires together the CMS client,
// cache, snapshot store, handlers, middleware, and templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *ContentCache
	Views  ViewFuncs

	client        cms.Client
	images        *imageFetcher
	previewLimits *LoginLimiter
	customRoutes  []func(*App)
	staticDir     string
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup validates the config and builds the client, store, cache, middleware
// and routes. Start calls it; tests call it directly and drive a.Echo.
func (a *App) Setup() error {
	if err := validate.Struct(a.Config); err != nil {
		return fmt.Errorf("pubcms: invalid config: %w", err)
	}
	if a.Config.previewEnabled() && a.Config.SessionSecret == "" {
		return fmt.Errorf("pubcms: SessionSecret is required when PreviewPassword is set")
	}

	if a.Config.Debug {
		a.Echo.Debug = true
		a.Echo.Logger.SetLevel(gommonlog.DEBUG)
	} else {
		a.Echo.Logger.SetLevel(gommonlog.INFO)
	}

	if a.client == nil {
		if a.Config.CMSToken == "" {
			return fmt.Errorf("pubcms: CMSToken is required")
		}
		client, err := cms.NewHTTPClient(a.Config.CMSToken,
			cms.WithBaseURL(a.Config.CMSBaseURL),
			cms.WithTimeout(a.Config.CMSTimeout),
		)
		if err != nil {
			return fmt.Errorf("pubcms: init cms client: %w", err)
		}
		a.client = client
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pubcms: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewContentCache(a.client, a.Store, a.Config.PostCacheTTL, a.Echo.Logger)
	a.images = newImageFetcher(a.Config.CMSTimeout)
	a.previewLimits = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start runs Setup and serves until the server is closed.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/pubcms.css", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))))

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/blog", a.handleBlog)
	e.GET("/blog/:slug", a.handlePost)
	if a.Config.OGImageProxy {
		e.GET("/blog/:slug/og.jpg", a.handleOGImage)
	}

	if a.Config.previewEnabled() {
		e.GET("/preview", a.handlePreview)
		e.POST("/preview/login", a.handlePreviewLogin)
		e.POST("/preview/logout", handlePreviewLogout)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("pubcms: required environment variable %s is not set", key)
	}
	return v
}
