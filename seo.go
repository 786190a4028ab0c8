package pubcms

import (
	"fmt"

	"github.com/eringen/pubcms/cms"
)

// HomeMeta is the metadata for the landing page.
func HomeMeta(cfg SiteConfig) PageMeta {
	site := cfg.Site()
	return PageMeta{
		Title:       cfg.Name,
		Description: cfg.Description,
		RelAuthor:   cfg.RelAuthor,
		URL:         BuildURL(cfg.URL),
		OG: OpenGraph{
			Title:       cfg.Name,
			Description: cfg.Description,
			Type:        "website",
		},
		JSONLD: WebsiteJsonLD(site),
	}
}

// BlogMeta is the metadata for a page of the post list.
func BlogMeta(cfg SiteConfig, page int, tag string) PageMeta {
	title := "Blog | " + cfg.Name
	canonical := BuildURL(cfg.URL, "blog")
	switch {
	case tag != "" && page > 1:
		title = fmt.Sprintf("Posts tagged %s, page %d | %s", tag, page, cfg.Name)
		canonical += fmt.Sprintf("?tag=%s&page=%d", tag, page)
	case tag != "":
		title = fmt.Sprintf("Posts tagged %s | %s", tag, cfg.Name)
		canonical += "?tag=" + tag
	case page > 1:
		title = fmt.Sprintf("Blog, page %d | %s", page, cfg.Name)
		canonical += fmt.Sprintf("?page=%d", page)
	}
	return PageMeta{
		Title:       title,
		Description: cfg.Description,
		RelAuthor:   cfg.RelAuthor,
		URL:         canonical,
		OG: OpenGraph{
			Title:       title,
			Description: cfg.Description,
			Type:        "website",
		},
	}
}

// PostMeta derives the page metadata for a single post: title from
// seo_title, description from meta_description and og:image from
// featured_image. Empty SEO fields fall back to title and summary.
func PostMeta(cfg SiteConfig, post cms.Post) PageMeta {
	title := firstNonEmpty(post.SEOTitle, post.Title)
	desc := firstNonEmpty(post.MetaDescription, post.Summary)
	image := post.FeaturedImage
	if cfg.OGImageProxy && image != "" {
		image = BuildURL(cfg.URL, "blog", post.Slug, "og.jpg")
	}
	return PageMeta{
		Title:       title,
		Description: desc,
		RelAuthor:   cfg.RelAuthor,
		URL:         PostURL(cfg.URL, post.Slug),
		OG: OpenGraph{
			Title:       title,
			Description: desc,
			Image:       image,
			Type:        "article",
		},
		JSONLD: BlogPostingJsonLD(cfg.Site(), post),
	}
}
