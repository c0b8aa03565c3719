// Package admin runs the admin panel's workflows: loading the dashboard,
// create and edit forms for posts and services, featured image uploads and
// confirmed deletes. It holds form state between requests; everything else
// is re-read from the repository.
package admin

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mevoq/site/content"
	"github.com/mevoq/site/metrics"
)

var (
	ErrNotConfirmed   = errors.New("admin: delete not confirmed")
	ErrSubmitInFlight = errors.New("admin: a save for this form is already in progress")
	ErrUploadInFlight = errors.New("admin: an upload for this form is already in progress")
	ErrFormNotFound   = errors.New("admin: form not found or expired")
)

const defaultFormTTL = 2 * time.Hour

// Repository is the content the admin panel manages.
type Repository interface {
	ListBlogPosts(ctx context.Context, publishedOnly bool) ([]content.BlogPost, error)
	ListAllServices(ctx context.Context) ([]content.Service, error)
	ListContacts(ctx context.Context) ([]content.ContactSubmission, error)
	GetBlogPostByID(ctx context.Context, id string) (content.BlogPost, error)
	GetServiceByID(ctx context.Context, id string) (content.Service, error)
	CreateBlogPost(ctx context.Context, p content.BlogPost) error
	UpdateBlogPost(ctx context.Context, p content.BlogPost) error
	DeleteBlogPost(ctx context.Context, id string) error
	CreateService(ctx context.Context, s content.Service) error
	UpdateService(ctx context.Context, s content.Service) error
	DeleteService(ctx context.Context, id string) error
	UploadImage(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
}

// Controller coordinates admin workflows. It is safe for concurrent use.
type Controller struct {
	repo  Repository
	log   *zap.SugaredLogger
	now   func() time.Time
	newID func() string

	posts    *registry[PostForm, content.BlogPost]
	services *registry[ServiceForm, content.Service]
}

type Option func(*Controller)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithIDFunc(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithFormTTL sets how long an untouched form stays open.
func WithFormTTL(d time.Duration) Option {
	return func(c *Controller) {
		c.posts.ttl = d
		c.services.ttl = d
	}
}

func NewController(repo Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:  repo,
		log:   zap.NewNop().Sugar(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	clock := func() time.Time { return c.now() }
	c.posts = newRegistry[PostForm, content.BlogPost](defaultFormTTL, clock)
	c.services = newRegistry[ServiceForm, content.Service](defaultFormTTL, clock)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dashboard is the admin panel's data. Each list carries its own error.
type Dashboard struct {
	Posts       []content.BlogPost
	PostsErr    error
	Services    []content.Service
	ServicesErr error
	Contacts    []content.ContactSubmission
	ContactsErr error
}

// Refresh loads posts, services and contacts concurrently. A failure in
// one list does not affect the others.
func (c *Controller) Refresh(ctx context.Context) Dashboard {
	var d Dashboard
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		d.Posts, d.PostsErr = c.repo.ListBlogPosts(ctx, false)
	}()
	go func() {
		defer wg.Done()
		d.Services, d.ServicesErr = c.repo.ListAllServices(ctx)
	}()
	go func() {
		defer wg.Done()
		d.Contacts, d.ContactsErr = c.repo.ListContacts(ctx)
	}()
	wg.Wait()
	for name, err := range map[string]error{"posts": d.PostsErr, "services": d.ServicesErr, "contacts": d.ContactsErr} {
		if err != nil {
			c.log.Warnw("dashboard load failed", "list", name, "err", err)
		}
	}
	return d
}

// OpenPost opens a post form for owner. An empty id opens a create form
// with default values; otherwise the post is loaded for editing.
func (c *Controller) OpenPost(ctx context.Context, owner, id string) (FormState[PostForm], error) {
	if id == "" {
		f := c.posts.open(c.newID(), owner, ModeCreate, blankPostForm(), content.BlogPost{})
		return f.state(), nil
	}
	p, err := c.repo.GetBlogPostByID(ctx, id)
	if err != nil {
		return FormState[PostForm]{}, err
	}
	f := c.posts.open(c.newID(), owner, ModeEdit, postFormFrom(p), p)
	return f.state(), nil
}

// PostForm returns the current state of an open post form.
func (c *Controller) PostForm(owner, formID string) (FormState[PostForm], error) {
	f, err := c.posts.get(owner, formID)
	if err != nil {
		return FormState[PostForm]{}, err
	}
	return f.state(), nil
}

// SetPostTitle records a title edit. In create mode the slug is derived
// from the title; in edit mode the slug is left alone.
func (c *Controller) SetPostTitle(owner, formID, title string) (PostForm, error) {
	f, err := c.posts.get(owner, formID)
	if err != nil {
		return PostForm{}, err
	}
	return f.update(func(v *PostForm) {
		v.Title = title
		if f.mode == ModeCreate {
			v.Slug = content.DeriveSlug(title)
		}
	}), nil
}

// KeepPostValues stores edits without validating or saving them, so an
// upload or a failed request can re-render what the user typed.
func (c *Controller) KeepPostValues(owner, formID string, values PostForm) error {
	f, err := c.posts.get(owner, formID)
	if err != nil {
		return err
	}
	f.update(func(v *PostForm) { *v = values })
	return nil
}

// SubmitPost validates and saves an open post form. On success the form
// is closed; on failure it stays open with the submitted values.
func (c *Controller) SubmitPost(ctx context.Context, owner, formID string, values PostForm) (content.BlogPost, error) {
	f, err := c.posts.get(owner, formID)
	if err != nil {
		return content.BlogPost{}, err
	}
	if !f.beginSubmit() {
		return content.BlogPost{}, ErrSubmitInFlight
	}
	defer f.endSubmit()
	f.update(func(v *PostForm) { *v = values })

	now := c.now().UTC()
	base := f.original
	if f.mode == ModeCreate {
		base = content.BlogPost{ID: c.newID(), CreatedAt: now}
	}
	p, err := applyPost(base, values, now)
	if err != nil {
		return content.BlogPost{}, err
	}

	if f.mode == ModeCreate {
		err = c.repo.CreateBlogPost(ctx, p)
	} else {
		err = c.repo.UpdateBlogPost(ctx, p)
	}
	metrics.AdminMutations.WithLabelValues("post", f.mode.String(), metrics.Result(err)).Inc()
	if err != nil {
		return content.BlogPost{}, err
	}
	c.posts.close(formID)
	c.log.Infow("post saved", "id", p.ID, "slug", p.Slug, "mode", f.mode, "published", p.Published)
	return p, nil
}

// CancelPost discards an open post form.
func (c *Controller) CancelPost(owner, formID string) {
	if _, err := c.posts.get(owner, formID); err == nil {
		c.posts.close(formID)
	}
}

// DeletePost removes a post. Nothing is sent to the repository unless
// confirmed is true.
func (c *Controller) DeletePost(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	err := c.repo.DeleteBlogPost(ctx, id)
	metrics.AdminMutations.WithLabelValues("post", "delete", metrics.Result(err)).Inc()
	if err == nil {
		c.log.Infow("post deleted", "id", id)
	}
	return err
}

// OpenService opens a service form; see OpenPost.
func (c *Controller) OpenService(ctx context.Context, owner, id string) (FormState[ServiceForm], error) {
	if id == "" {
		f := c.services.open(c.newID(), owner, ModeCreate, blankServiceForm(), content.Service{})
		return f.state(), nil
	}
	s, err := c.repo.GetServiceByID(ctx, id)
	if err != nil {
		return FormState[ServiceForm]{}, err
	}
	f := c.services.open(c.newID(), owner, ModeEdit, serviceFormFrom(s), s)
	return f.state(), nil
}

func (c *Controller) ServiceForm(owner, formID string) (FormState[ServiceForm], error) {
	f, err := c.services.get(owner, formID)
	if err != nil {
		return FormState[ServiceForm]{}, err
	}
	return f.state(), nil
}

// SubmitService validates and saves an open service form.
func (c *Controller) SubmitService(ctx context.Context, owner, formID string, values ServiceForm) (content.Service, error) {
	f, err := c.services.get(owner, formID)
	if err != nil {
		return content.Service{}, err
	}
	if !f.beginSubmit() {
		return content.Service{}, ErrSubmitInFlight
	}
	defer f.endSubmit()
	f.update(func(v *ServiceForm) { *v = values })

	base := f.original
	if f.mode == ModeCreate {
		base = content.Service{ID: c.newID(), CreatedAt: c.now().UTC()}
	}
	s, err := applyService(base, values)
	if err != nil {
		return content.Service{}, err
	}

	if f.mode == ModeCreate {
		err = c.repo.CreateService(ctx, s)
	} else {
		err = c.repo.UpdateService(ctx, s)
	}
	metrics.AdminMutations.WithLabelValues("service", f.mode.String(), metrics.Result(err)).Inc()
	if err != nil {
		return content.Service{}, err
	}
	c.services.close(formID)
	c.log.Infow("service saved", "id", s.ID, "mode", f.mode)
	return s, nil
}

func (c *Controller) CancelService(owner, formID string) {
	if _, err := c.services.get(owner, formID); err == nil {
		c.services.close(formID)
	}
}

// DeleteService removes a service once confirmed.
func (c *Controller) DeleteService(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	err := c.repo.DeleteService(ctx, id)
	metrics.AdminMutations.WithLabelValues("service", "delete", metrics.Result(err)).Inc()
	if err == nil {
		c.log.Infow("service deleted", "id", id)
	}
	return err
}
