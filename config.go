package pubcms

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/eringen/pubcms/cms"
)

// SiteConfig holds all configuration for a pubcms site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Blog")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD
	RelAuthor   string `yaml:"rel_author"`  // URL for <link rel="author">

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite snapshot path (default "data/pubcms.db")

	CMSToken   string        `yaml:"cms_token"`    // Required unless a client is injected
	CMSBaseURL string        `yaml:"cms_base_url"` // default cms.DefaultBaseURL
	CMSTimeout time.Duration `yaml:"cms_timeout"`  // default 10s

	PageSize     int           `yaml:"page_size" validate:"min=1,max=100"` // posts per /blog page (default 10)
	PostCacheTTL time.Duration `yaml:"post_cache_ttl"`                     // default 5min, negative disables

	OGImageProxy bool `yaml:"og_image_proxy"` // serve resized featured images at /blog/:slug/og.jpg

	PreviewPassword string `yaml:"preview_password"` // enables /preview when set
	SessionSecret   string `yaml:"session_secret"`   // required with PreviewPassword
	CookieSecure    bool   `yaml:"cookie_secure"`    // Set true for HTTPS

	Debug bool `yaml:"debug"`
}

var validate = validator.New()

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pubcms.db"
	}
	if c.CMSBaseURL == "" {
		c.CMSBaseURL = cms.DefaultBaseURL
	}
	if c.CMSTimeout == 0 {
		c.CMSTimeout = 10 * time.Second
	}
	if c.PageSize == 0 {
		c.PageSize = 10
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// Site returns the fields templates are allowed to see.
func (c SiteConfig) Site() Site {
	return Site{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Author:      c.Author,
	}
}

func (c SiteConfig) previewEnabled() bool {
	return c.PreviewPassword != ""
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithContentClient replaces the HTTP CMS client, e.g. with a fake in tests.
func WithContentClient(c cms.Client) Option {
	return func(a *App) {
		a.client = c
	}
}
