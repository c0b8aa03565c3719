package views

import (
	"github.com/mevoq/site/admin"
	"github.com/mevoq/site/content"
)

// SiteConfig holds site-wide settings. Every page carries it so nothing
// in the templates is hardcoded.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into <head>.
type PageMeta struct {
	Title       string
	Description string
	Path        string // canonical path, joined onto SiteConfig.URL
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
}

// Flash is a one-shot notification shown at the top of the next page.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

// Page is the data every view needs.
type Page struct {
	Site    SiteConfig
	Meta    PageMeta
	CSRF    string
	Flashes []Flash
	// Watch makes the page follow auth state changes over /auth/events.
	Watch string
}

type HomeData struct {
	Page
	Stats        content.Stats
	Services     []content.Service
	Testimonials []content.Testimonial
	Posts        []content.BlogPost
}

type AboutData struct {
	Page
	Team  []content.TeamMember
	Stats content.Stats
}

type ServicesData struct {
	Page
	Services []content.Service
}

type ServiceData struct {
	Page
	Service content.Service
	Related []content.Service
}

type BlogData struct {
	Page
	Posts      content.Page[content.BlogPost]
	Categories []string
	Category   string
}

type PostData struct {
	Page
	Post     content.BlogPost
	Related  []content.BlogPost
	ReadTime int
}

type ContactData struct {
	Page
	Values content.ContactFields
	Errors *content.ValidationError
}

type LoginData struct {
	Page
	Email string
	Error string
}

// AdminData is the dashboard. Tab is one of "blog", "services" or
// "contacts".
type AdminData struct {
	Page
	Tab       string
	Email     string
	Dashboard admin.Dashboard
}

type PostFormData struct {
	Page
	Form       admin.FormState[admin.PostForm]
	Errors     *content.ValidationError
	Categories []string
}

type ServiceFormData struct {
	Page
	Form   admin.FormState[admin.ServiceForm]
	Errors *content.ValidationError
	Icons  []content.Icon
}

// ConfirmData asks before deleting Kind ("post" or "service") named Title.
type ConfirmData struct {
	Page
	Kind   string
	ID     string
	Title  string
	Action string
	Back   string
}
