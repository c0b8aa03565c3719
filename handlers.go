package site

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/mevoq/site/backend"
	"github.com/mevoq/site/content"
	"github.com/mevoq/site/markdown"
	"github.com/mevoq/site/views"
)

const (
	homePosts    = 3
	relatedPosts = 3
	relatedCount = 3
)

// fail turns a content error into the response the visitor should see.
func (a *App) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, content.ErrNotFound):
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, views.PageMeta{Title: "Page not found"})))
	case errors.Is(err, content.ErrBackendUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable).SetInternal(err)
	default:
		return err
	}
}

func (a *App) handleHome(c echo.Context) error {
	var d views.HomeData
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		d.Services, err = a.Content.ListServices(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Testimonials, err = a.Content.ListTestimonials(ctx)
		return err
	})
	g.Go(func() error {
		posts, err := a.Content.ListBlogPosts(ctx, true)
		d.Posts = posts[:min(len(posts), homePosts)]
		return err
	})
	if err := g.Wait(); err != nil {
		return a.fail(c, err)
	}
	d.Stats = a.Content.Stats()
	d.Page = a.page(c, views.PageMeta{
		Description: a.Config.Description,
		JSONLD:      views.OrganizationJsonLD(a.siteInfo()),
	})
	return Render(c, a.Views.Home(d))
}

func (a *App) handleAbout(c echo.Context) error {
	team, err := a.Content.ListTeam(c.Request().Context())
	if err != nil {
		return a.fail(c, err)
	}
	return Render(c, a.Views.About(views.AboutData{
		Page: a.page(c, views.PageMeta{
			Title:       "About Us",
			Description: "Meet the regulatory, quality and compliance experts behind " + a.Config.Name + ".",
		}),
		Team:  team,
		Stats: a.Content.Stats(),
	}))
}

func (a *App) handleServices(c echo.Context) error {
	services, err := a.Content.ListServices(c.Request().Context())
	if err != nil {
		return a.fail(c, err)
	}
	return Render(c, a.Views.Services(views.ServicesData{
		Page: a.page(c, views.PageMeta{
			Title:       "Services",
			Description: "Regulatory strategy, submissions, quality systems and compliance services.",
		}),
		Services: services,
	}))
}

func (a *App) handleService(c echo.Context) error {
	id := c.Param("id")
	services, err := a.Content.ListServices(c.Request().Context())
	if err != nil {
		return a.fail(c, err)
	}
	for _, s := range services {
		if s.ID != id {
			continue
		}
		return Render(c, a.Views.Service(views.ServiceData{
			Page: a.page(c, views.PageMeta{
				Title:       s.Title,
				Description: s.Description,
				JSONLD:      views.ServiceJsonLD(a.siteInfo(), s),
			}),
			Service: s,
			Related: content.RelatedServices(s.ID, services, relatedCount),
		}))
	}
	return a.fail(c, fmt.Errorf("service %q: %w", id, content.ErrNotFound))
}

func (a *App) handleBlog(c echo.Context) error {
	posts, err := a.Content.ListBlogPosts(c.Request().Context(), true)
	if err != nil {
		return a.fail(c, err)
	}
	category := c.QueryParam("category")
	if category == "all" {
		category = ""
	}
	d := views.BlogData{
		Posts:      content.Paginate(content.FilterByCategory(posts, category), pageParam(c), content.PostsPerPage),
		Categories: content.Categories(posts),
		Category:   category,
	}
	meta := views.PageMeta{
		Title:       "Blog",
		Description: "Regulatory insights and compliance guidance from the " + a.Config.Name + " team.",
	}
	if category != "" {
		meta.Title = views.CategoryLabel(category) + " Articles"
	}
	d.Page = a.page(c, meta)
	if isFragment(c) {
		return Render(c, a.Views.BlogList(d))
	}
	return Render(c, a.Views.Blog(d))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Content.GetBlogPost(ctx, c.Param("slug"))
	if err != nil {
		return a.fail(c, err)
	}
	var related []content.BlogPost
	if posts, err := a.Content.ListBlogPosts(ctx, true); err == nil {
		related = content.RelatedPosts(post, posts, relatedPosts)
	} else {
		a.Log.Warnw("related posts unavailable", "slug", post.Slug, "err", err)
	}
	return Render(c, a.Views.Post(views.PostData{
		Page: a.page(c, views.PageMeta{
			Title:       post.Title,
			Description: post.Excerpt,
			Path:        post.Link(),
			OGType:      "article",
			Image:       post.FeaturedImage,
			JSONLD:      views.BlogPostingJsonLD(a.siteInfo(), post),
		}),
		Post:     post,
		Related:  related,
		ReadTime: markdown.ReadTime(post.Content),
	}))
}

func (a *App) contactPage(c echo.Context) views.Page {
	return a.page(c, views.PageMeta{
		Title:       "Contact Us",
		Description: "Request a free strategy call with our regulatory experts.",
	})
}

func (a *App) handleContact(c echo.Context) error {
	return Render(c, a.Views.Contact(views.ContactData{
		Page:   a.contactPage(c),
		Values: content.ContactFields{LeadType: content.LeadStrategyCall},
	}))
}

func (a *App) handleContactSubmit(c echo.Context) error {
	var f content.ContactFields
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest).SetInternal(err)
	}
	d := views.ContactData{Values: f}

	if !a.contactLimiter.Allow(c.RealIP()) {
		d.Page = a.contactPage(c)
		d.Flashes = append(d.Flashes, views.Flash{Kind: "error", Message: "Too many messages from your network. Please try again later."})
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Contact(d))
	}

	_, err := a.Content.SubmitContact(c.Request().Context(), f)
	var verr *content.ValidationError
	switch {
	case err == nil:
		addFlash(c, "success", "Thank you! We'll get back to you within 24 hours.")
		return c.Redirect(http.StatusSeeOther, "/contact")
	case errors.As(err, &verr):
		d.Page = a.contactPage(c)
		d.Errors = verr
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Contact(d))
	default:
		a.Log.Errorw("contact submission failed", "err", err)
		d.Page = a.contactPage(c)
		d.Flashes = append(d.Flashes, views.Flash{Kind: "error", Message: "We could not send your message. Please try again."})
		return RenderStatus(c, http.StatusServiceUnavailable, a.Views.Contact(d))
	}
}

func (a *App) loginPage(c echo.Context) views.Page {
	p := a.page(c, views.PageMeta{Title: "Admin Login"})
	p.Watch = "login"
	return p
}

func (a *App) handleLogin(c echo.Context) error {
	id, err := ensureClientID(c)
	if err != nil {
		return err
	}
	if s, err := a.Auth.GetSession(c.Request().Context(), id); err == nil && s != nil {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	return Render(c, a.Views.Login(views.LoginData{Page: a.loginPage(c)}))
}

func (a *App) handleLoginSubmit(c echo.Context) error {
	id, err := ensureClientID(c)
	if err != nil {
		return err
	}
	email := c.FormValue("email")
	d := views.LoginData{Email: email}

	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		d.Page = a.loginPage(c)
		d.Error = "Too many login attempts. Try again later."
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Login(d))
	}

	_, err = a.Auth.SignInWithPassword(c.Request().Context(), id, email, c.FormValue("password"))
	switch {
	case err == nil:
		a.Log.Infow("admin signed in", "email", email)
		return c.Redirect(http.StatusSeeOther, "/admin")
	case errors.Is(err, backend.ErrInvalidCredentials):
		a.loginLimiter.Record(ip)
		d.Page = a.loginPage(c)
		d.Error = "Invalid email or password."
		return RenderStatus(c, http.StatusUnauthorized, a.Views.Login(d))
	default:
		a.Log.Errorw("sign in failed", "err", err)
		d.Page = a.loginPage(c)
		d.Error = "Sign in is unavailable right now. Please try again shortly."
		return RenderStatus(c, http.StatusServiceUnavailable, a.Views.Login(d))
	}
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		services []content.Service
		posts    []content.BlogPost
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		services, err = a.Content.ListServices(ctx)
		return err
	})
	g.Go(func() (err error) {
		posts, err = a.Content.ListBlogPosts(ctx, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return a.fail(c, err)
	}
	return a.renderSitemap(c, services, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Content.ListBlogPosts(c.Request().Context(), true)
	if err != nil {
		return a.fail(c, err)
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nDisallow: /admin\nDisallow: /login\n\nSitemap: " + views.BuildURL(a.Config.URL, "sitemap.xml") + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) handleMetrics() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: a.Registry})
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
