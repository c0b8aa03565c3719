// Package views holds the default page templates. Each page is exposed as a
// templ.Component so the site can swap any of them for its own.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Static returns the stylesheet and script served under /public.
func Static() fs.FS {
	sub, _ := fs.Sub(staticFS, "static")
	return sub
}

// shared are parsed into every page set.
var shared = []string{"templates/layout.html", "templates/partials.html"}

var pages = map[string]*template.Template{}

func init() {
	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
	for _, name := range entries {
		if name == shared[0] || name == shared[1] {
			continue
		}
		files := append(append([]string{}, shared...), name)
		pages[name[len("templates/"):len(name)-len(".html")]] = template.Must(
			template.New("layout.html").Funcs(funcs).ParseFS(templateFS, files...),
		)
	}
}

// page renders the named page through the layout.
func page(name string, data any) templ.Component {
	return fragment(name, "layout", data)
}

// fragment renders a single named template from a page set.
func fragment(page, tmpl string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pages[page]
		if !ok {
			return fmt.Errorf("views: unknown page %q", page)
		}
		return t.ExecuteTemplate(w, tmpl, data)
	})
}

func Home(d HomeData) templ.Component         { return page("home", d) }
func About(d AboutData) templ.Component       { return page("about", d) }
func Services(d ServicesData) templ.Component { return page("services", d) }
func Service(d ServiceData) templ.Component   { return page("service", d) }
func Blog(d BlogData) templ.Component         { return page("blog", d) }
func Post(d PostData) templ.Component         { return page("post", d) }
func Contact(d ContactData) templ.Component   { return page("contact", d) }
func Login(d LoginData) templ.Component       { return page("login", d) }
func Admin(d AdminData) templ.Component       { return page("admin", d) }
func NotFound(d Page) templ.Component         { return page("404", d) }
func ServerError(d Page) templ.Component      { return page("500", d) }

func AdminPostForm(d PostFormData) templ.Component       { return page("admin_post_form", d) }
func AdminServiceForm(d ServiceFormData) templ.Component { return page("admin_service_form", d) }
func AdminConfirmDelete(d ConfirmData) templ.Component   { return page("admin_confirm", d) }

// BlogList is the post grid alone, for in-place category and page changes.
func BlogList(d BlogData) templ.Component { return fragment("blog", "post-grid", d) }
