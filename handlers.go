package pubcms

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"

	"github.com/eringen/pubcms/cms"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func (a *App) page(c echo.Context, meta PageMeta) Page {
	return Page{
		Site:      a.Config.Site(),
		Meta:      meta,
		Preview:   a.previewing(c),
		CSRFToken: CsrfToken(c),
	}
}

func (a *App) handleHome(c echo.Context) error {
	return Render(c, a.Views.Home(a.page(c, HomeMeta(a.Config))))
}

func (a *App) handleBlog(c echo.Context) error {
	pageNum := 1
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		pageNum = n
	}
	tag := Slugify(c.QueryParam("tag"))

	opts := cms.ListOptions{
		Page:     pageNum,
		PageSize: a.Config.PageSize,
		TagSlug:  tag,
		Preview:  a.previewing(c),
	}
	list, stale, err := a.Cache.ListPosts(c.Request().Context(), opts)
	if err != nil {
		return cmsError(err)
	}
	if pageNum > 1 && len(list.Data) == 0 {
		return echo.ErrNotFound
	}
	return Render(c, a.Views.Blog(a.page(c, BlogMeta(a.Config, pageNum, tag)), BlogList{
		Posts:    list.Data,
		Meta:     list.Meta,
		Page:     pageNum,
		PageSize: a.Config.PageSize,
		Tag:      tag,
		Stale:    stale,
	}))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	post, _, err := a.Cache.GetPost(c.Request().Context(), slug, a.previewing(c))
	if err != nil {
		return cmsError(err)
	}
	return Render(c, a.Views.Post(a.page(c, PostMeta(a.Config, post.Data)), post))
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /preview\n\nSitemap: %s\n", BuildURL(a.Config.URL, "sitemap.xml"))
	return c.String(http.StatusOK, body)
}

// cmsError maps content client failures onto HTTP errors. Anything that is
// not a missing post or a bad request means the CMS let us down: 502.
func cmsError(err error) error {
	switch {
	case errors.Is(err, cms.ErrNotFound):
		return echo.ErrNotFound.WithInternal(err)
	case errors.Is(err, cms.ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest).WithInternal(err)
	}
	return echo.NewHTTPError(http.StatusBadGateway).WithInternal(err)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, PageMeta{Title: "Not found | " + a.Config.Name})))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		cause := err
		if ok && he.Internal != nil {
			cause = he.Internal
		}
		c.Logger().Errorf("server error: %v", cause)
		c.Response().Header().Set("Cache-Control", "no-store")
		if st, ok := deepestStack(cause); ok && a.Config.Debug {
			c.Logger().Debugf("%+v", st.StackTrace())
		}
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c, PageMeta{Title: "Error | " + a.Config.Name})))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// deepestStack returns the innermost error in the chain that recorded a stack.
func deepestStack(err error) (stackTracer, bool) {
	var found stackTracer
	for err != nil {
		if st, ok := err.(stackTracer); ok {
			found = st
		}
		err = errors.Unwrap(err)
	}
	return found, found != nil
}
