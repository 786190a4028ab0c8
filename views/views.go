// Package views is the default html/template rendering of pubcms pages,
// exposed as templ components so it plugs into pubcms.ViewFuncs.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/pubcms"
	"github.com/eringen/pubcms/cms"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer holds one parsed template set per page, each sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

// pageNames are the views a Renderer can render.
var pageNames = []string{"home", "blog", "post", "preview", "notfound", "error"}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	base, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("views: parse layout: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("views: clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// viewData is the single value every template executes against.
type viewData struct {
	Page      pubcms.Page
	List      pubcms.BlogList
	Post      cms.PostResponse
	ShowError bool
}

// Render returns a component that executes the named view with data.
// This is the render(viewName, data) entry point the handlers reach
// through ViewFuncs.
func (r *Renderer) Render(name string, data viewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := r.pages[name]
		if !ok {
			return fmt.Errorf("views: unknown view %q", name)
		}
		return t.ExecuteTemplate(w, "layout", data)
	})
}

// ViewFuncs adapts the renderer to the pubcms.ViewFuncs contract.
func (r *Renderer) ViewFuncs() pubcms.ViewFuncs {
	return pubcms.ViewFuncs{
		Home: func(page pubcms.Page) templ.Component {
			return r.Render("home", viewData{Page: page})
		},
		Blog: func(page pubcms.Page, list pubcms.BlogList) templ.Component {
			return r.Render("blog", viewData{Page: page, List: list})
		},
		Post: func(page pubcms.Page, post cms.PostResponse) templ.Component {
			return r.Render("post", viewData{Page: page, Post: post})
		},
		PreviewLogin: func(page pubcms.Page, showError bool) templ.Component {
			return r.Render("preview", viewData{Page: page, ShowError: showError})
		},
		NotFound: func(page pubcms.Page) templ.Component {
			return r.Render("notfound", viewData{Page: page})
		},
		ServerError: func(page pubcms.Page) templ.Component {
			return r.Render("error", viewData{Page: page})
		},
	}
}

// Default parses the embedded templates and returns their ViewFuncs.
// It panics if the embedded templates are broken.
func Default() pubcms.ViewFuncs {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r.ViewFuncs()
}
