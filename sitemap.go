package pubcms

import (
	"context"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubcms/cms"
)

const (
	feedPageSize = 100
	feedMaxPages = 20
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// allPosts walks the CMS list pages until there is no next page.
func (a *App) allPosts(ctx context.Context) ([]cms.Post, error) {
	var posts []cms.Post
	for page := 1; page > 0 && page <= feedMaxPages; {
		list, _, err := a.Cache.ListPosts(ctx, cms.ListOptions{
			Page:        page,
			PageSize:    feedPageSize,
			ExcludeBody: true,
		})
		if err != nil {
			return nil, err
		}
		posts = append(posts, list.Data...)
		page = list.Meta.NextPage
	}
	return posts, nil
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.allPosts(c.Request().Context())
	if err != nil {
		return cmsError(err)
	}
	return a.renderSitemap(c, posts)
}

func (a *App) renderSitemap(c echo.Context, posts []cms.Post) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "blog")},
	}
	for _, p := range posts {
		lastMod := p.Updated
		if lastMod.IsZero() {
			lastMod = p.Published
		}
		u := sitemapURL{Loc: PostURL(base, p.Slug)}
		if !lastMod.IsZero() {
			u.LastMod = lastMod.Format(time.DateOnly)
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
