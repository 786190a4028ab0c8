package views

import (
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/eringen/pubcms/cms"
)

var funcMap = template.FuncMap{
	"body":     SanitizeBody,
	"jsonld":   func(s string) template.JS { return template.JS(s) },
	"date":     FormatDate,
	"isodate":  func(t time.Time) string { return t.Format(time.RFC3339) },
	"author":   func(a cms.Author) string { return a.Name() },
	"tagclass": TagClass,
}

var (
	bodyPolicyOnce sync.Once
	bodyPolicy     *bluemonday.Policy
)

// SanitizeBody strips scripts, event handlers and other unsafe markup from
// a CMS post body while keeping ordinary rich text and embedded media.
func SanitizeBody(raw string) template.HTML {
	bodyPolicyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Globally()
		p.AllowAttrs("src", "width", "height", "allowfullscreen", "frameborder").OnElements("iframe")
		p.AllowURLSchemes("http", "https", "mailto")
		p.AllowElements("figure", "figcaption")
		bodyPolicy = p
	})
	return template.HTML(bodyPolicy.Sanitize(raw))
}

// FormatDate renders a publish date for humans; zero dates render empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// TagClass returns CSS classes for a tag link, with active variant.
func TagClass(slug, active string) string {
	if strings.EqualFold(slug, active) {
		return "tag tag-active"
	}
	return "tag"
}
