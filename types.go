package pubcms

// Site is the public, template-safe subset of SiteConfig.
type Site struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	RelAuthor   string // <link rel="author">
	URL         string // canonical + og:url
	OG          OpenGraph
	JSONLD      string
}

// OpenGraph holds the og:* properties used for link previews.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string // "website" or "article"
}

// Page is what every view receives alongside its route-specific data.
type Page struct {
	Site      Site
	Meta      PageMeta
	Preview   bool
	CSRFToken string
}
