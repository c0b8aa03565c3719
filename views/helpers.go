package views

import (
	"encoding/json"
	"html/template"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mevoq/site/content"
	"github.com/mevoq/site/markdown"
)

// BuildURL joins path segments onto a base URL.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	if len(pathSegments) == 0 && u.Path == "/" {
		u.Path = ""
	}
	return u.String()
}

// OrganizationJsonLD produces a Schema.org ProfessionalService block for
// the site.
func OrganizationJsonLD(cfg SiteConfig) string {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "ProfessionalService",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	return marshalLD(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting block for a post.
func BlogPostingJsonLD(cfg SiteConfig, post content.BlogPost) string {
	postURL := BuildURL(cfg.URL, "blog", post.Slug)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Excerpt,
		"datePublished": post.Date().Format(time.RFC3339),
		"dateModified":  post.UpdatedAt.Format(time.RFC3339),
		"url":           postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.Author,
		}
	}
	if post.FeaturedImage != "" {
		data["image"] = post.FeaturedImage
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	return marshalLD(data)
}

// ServiceJsonLD produces a Schema.org Service block.
func ServiceJsonLD(cfg SiteConfig, s content.Service) string {
	return marshalLD(map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Service",
		"name":        s.Title,
		"description": s.Description,
		"url":         BuildURL(cfg.URL, "services", s.ID),
		"provider": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
	})
}

func marshalLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// IconSVG renders a service icon as an inline SVG.
func IconSVG(i content.Icon, size int) template.HTML {
	return template.HTML(`<svg xmlns="http://www.w3.org/2000/svg" width="` + strconv.Itoa(size) + `" height="` + strconv.Itoa(size) +
		`" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true">` +
		i.Glyph() + `</svg>`)
}

// CategoryLabel turns a category slug into a heading, e.g. "quality"
// becomes "Quality".
func CategoryLabel(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Initials returns up to two initials for an avatar placeholder.
func Initials(name string) string {
	var out []rune
	for _, w := range strings.Fields(name) {
		r := []rune(w)
		if !unicode.IsLetter(r[0]) {
			continue
		}
		out = append(out, unicode.ToUpper(r[0]))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// Stars returns a rating as filled and empty stars out of five.
func Stars(n int) string {
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 15:04")
}

func renderMarkdown(s string) template.HTML {
	h, err := markdown.HTML(s)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return h
}

func leadLabel(lead string) string {
	if lead == content.LeadStrategyCall {
		return "Strategy call"
	}
	return "General inquiry"
}

var funcs = template.FuncMap{
	"markdown":    renderMarkdown,
	"icon":        IconSVG,
	"date":        formatDate,
	"datetime":    formatDateTime,
	"joinTags":    content.JoinTags,
	"category":    CategoryLabel,
	"initials":    Initials,
	"stars":       Stars,
	"lead":        leadLabel,
	"readTime":    markdown.ReadTime,
	"url":         BuildURL,
	"jsonld":      func(s string) template.JS { return template.JS(s) },
	"fieldError":  func(e *content.ValidationError, f string) string { return e.Field(f) },
	"pathEscape":  url.PathEscape,
	"queryEscape": url.QueryEscape,
	"errorText":   errorText,
	"list":        func(v ...string) []string { return v },
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return "Could not load this list. The content service may be unavailable; try again shortly."
}
