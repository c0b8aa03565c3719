// Package site is the Mevoq consulting website: public marketing pages, a
// blog, a contact form and a password-protected admin panel for posts and
// services, built with Go, Echo and templ components.
//
// The page templates live in the views package and are wired through
// ViewFuncs, so any page can be replaced without touching the handlers.
package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mevoq/site/admin"
	"github.com/mevoq/site/auth"
	"github.com/mevoq/site/backend/sqlstore"
	"github.com/mevoq/site/content"
	"github.com/mevoq/site/metrics"
	"github.com/mevoq/site/views"
)

const (
	shutdownTimeout = 10 * time.Second
	// uploadBodyLimit leaves room for the post fields next to a
	// maximum-size image.
	uploadBodyLimit = "12M"
)

// ViewFuncs holds the components the handlers render. DefaultViews
// returns the stock set from the views package.
type ViewFuncs struct {
	Home             func(views.HomeData) templ.Component
	About            func(views.AboutData) templ.Component
	Services         func(views.ServicesData) templ.Component
	Service          func(views.ServiceData) templ.Component
	Blog             func(views.BlogData) templ.Component
	BlogList         func(views.BlogData) templ.Component
	Post             func(views.PostData) templ.Component
	Contact          func(views.ContactData) templ.Component
	Login            func(views.LoginData) templ.Component
	Admin            func(views.AdminData) templ.Component
	AdminPostForm    func(views.PostFormData) templ.Component
	AdminServiceForm func(views.ServiceFormData) templ.Component
	AdminConfirm     func(views.ConfirmData) templ.Component
	NotFound         func(views.Page) templ.Component
	ServerError      func(views.Page) templ.Component
}

func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:             views.Home,
		About:            views.About,
		Services:         views.Services,
		Service:          views.Service,
		Blog:             views.Blog,
		BlogList:         views.BlogList,
		Post:             views.Post,
		Contact:          views.Contact,
		Login:            views.Login,
		Admin:            views.Admin,
		AdminPostForm:    views.AdminPostForm,
		AdminServiceForm: views.AdminServiceForm,
		AdminConfirm:     views.AdminConfirmDelete,
		NotFound:         views.NotFound,
		ServerError:      views.ServerError,
	}
}

// App wires the backend, the content client, the admin controller, the
// handlers and the middleware together.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *sqlstore.Store
	Auth     *sqlstore.Auth
	Storage  *sqlstore.FileStorage
	Content  *content.Client
	Admin    *admin.Controller
	Views    ViewFuncs
	Log      *zap.SugaredLogger
	Registry *prometheus.Registry

	authCfg        auth.Config
	loginLimiter   *Limiter
	contactLimiter *Limiter
	customRoutes   []func(*App)
}

// New creates an App. Call Init before serving.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:   cfg,
		Echo:     echo.New(),
		Views:    DefaultViews(),
		Log:      zap.S(),
		Registry: prometheus.NewRegistry(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init opens the backend, builds the content client and admin controller,
// and registers middleware and routes.
func (a *App) Init(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return err
	}

	store, err := sqlstore.Open(ctx, a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("site: open store: %w", err)
	}
	a.Store = store
	a.Auth = sqlstore.NewAuth(store, a.Config.SessionTTL)
	a.Storage = sqlstore.NewFileStorage(a.Config.StorageDir, a.Config.URL)

	a.Content = content.NewClient(a.Store, a.Storage,
		content.WithSampleFallback(a.Config.Fallback()),
		content.WithTimeout(a.Config.BackendTimeout),
		content.WithLogger(a.Log.Named("content")),
	)
	a.Admin = admin.NewController(a.Content, admin.WithLogger(a.Log.Named("admin")))

	a.authCfg = auth.Config{
		Auth:      a.Auth,
		ClientID:  clientID,
		LoginPath: "/login",
		Logger:    a.Log.Named("auth"),
	}
	a.loginLimiter = NewLimiter(5, time.Minute)
	a.contactLimiter = NewLimiter(5, 10*time.Minute)

	if err := metrics.Register(a.Registry); err != nil {
		return fmt.Errorf("site: register metrics: %w", err)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Run serves until ctx is canceled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Infow("listening", "addr", a.Config.Addr, "url", a.Config.URL)
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Log.Infow("shutting down")
		return a.Echo.Shutdown(sctx)
	})
	return g.Wait()
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.StaticFS("/public", views.Static())
	e.Static("/storage", a.Storage.Root())
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/metrics", a.handleMetrics())

	e.GET("/", a.handleHome)
	e.GET("/about", a.handleAbout)
	e.GET("/services", a.handleServices)
	e.GET("/services/:id", a.handleService)
	e.GET("/blog", a.handleBlog)
	e.GET("/blog/:slug", a.handlePost)
	e.GET("/contact", a.handleContact)
	e.POST("/contact", a.handleContactSubmit)

	e.GET("/login", a.handleLogin)
	e.POST("/login", a.handleLoginSubmit)
	e.GET("/auth/events", auth.Events(a.authCfg))

	g := e.Group("/admin", auth.Require(a.authCfg))
	g.GET("", a.handleAdmin)
	g.POST("/logout", a.handleLogout)

	g.GET("/posts/new", a.handleNewPost)
	g.GET("/posts/:id/edit", a.handleEditPost)
	g.POST("/posts/slug", a.handlePostSlug)
	g.POST("/posts/save", a.handleSavePost, middleware.BodyLimit(uploadBodyLimit))
	g.GET("/posts/:id/delete", a.handleConfirmDeletePost)
	g.POST("/posts/:id/delete", a.handleDeletePost)

	g.GET("/services/new", a.handleNewService)
	g.GET("/services/:id/edit", a.handleEditService)
	g.POST("/services/save", a.handleSaveService)
	g.GET("/services/:id/delete", a.handleConfirmDeleteService)
	g.POST("/services/:id/delete", a.handleDeleteService)
}

// Close stops background work and closes the backend. Call it when the
// app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.contactLimiter != nil {
		a.contactLimiter.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
