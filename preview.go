package pubcms

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// handlePreview shows the login form, or the logout form once previewing.
func (a *App) handlePreview(c echo.Context) error {
	return Render(c, a.Views.PreviewLogin(a.page(c, PageMeta{Title: "Preview | " + a.Config.Name}), false))
}

func (a *App) handlePreviewLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.previewLimits.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.PreviewPassword)) == 1 {
		if err := setPreviewSession(c); err != nil {
			return err
		}
		c.Logger().Infof("preview mode enabled for %s", ip)
		return c.Redirect(http.StatusSeeOther, "/blog")
	}
	a.previewLimits.Record(ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.PreviewLogin(a.page(c, PageMeta{Title: "Preview | " + a.Config.Name}), true))
}

func handlePreviewLogout(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
