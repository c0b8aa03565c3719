package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mevoq/site/backend"
	"github.com/mevoq/site/metrics"
)

const defaultTimeout = 10 * time.Second

// Client is the content repository. It owns no state beyond its
// collaborators; every read goes to the backend.
type Client struct {
	store    backend.Store
	storage  backend.Storage
	log      *zap.SugaredLogger
	fallback bool
	timeout  time.Duration
	now      func() time.Time
	newID    func() string
}

// Option configures a Client.
type Option func(*Client)

// WithSampleFallback controls whether empty testimonial, service and team
// collections are answered with sample records. It is on by default.
func WithSampleFallback(on bool) Option {
	return func(c *Client) { c.fallback = on }
}

// WithTimeout bounds every backend call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithIDFunc(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// NewClient returns a Client over store and storage.
func NewClient(store backend.Store, storage backend.Storage, opts ...Option) *Client {
	c := &Client{
		store:    store,
		storage:  storage,
		log:      zap.NewNop().Sugar(),
		fallback: true,
		timeout:  defaultTimeout,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the client's current time in UTC.
func (c *Client) Now() time.Time {
	return c.now().UTC()
}

// call runs fn under the client timeout, records it, and classifies the error.
func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	metrics.ObserveBackendCall(op, start, err)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, backend.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		c.log.Warnw("backend call failed", "op", op, "err", err)
		return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
	}
}

func (c *Client) useSamples(collection backend.Collection, n int) bool {
	if n > 0 || !c.fallback {
		return false
	}
	metrics.SampleFallbacks.WithLabelValues(string(collection)).Inc()
	return true
}

// ListTestimonials returns every testimonial, or the samples when there are none.
func (c *Client) ListTestimonials(ctx context.Context) ([]Testimonial, error) {
	var rows []Testimonial
	err := c.call(ctx, "list testimonials", func(ctx context.Context) error {
		return c.store.Select(ctx, backend.From(backend.Testimonials), &rows)
	})
	if err != nil {
		return nil, err
	}
	if c.useSamples(backend.Testimonials, len(rows)) {
		return SampleTestimonials(), nil
	}
	return rows, nil
}

// ListServices returns every service oldest first, or the samples when
// there are none.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var rows []Service
	err := c.call(ctx, "list services", func(ctx context.Context) error {
		return c.store.Select(ctx, backend.From(backend.Services).Order("created_at", false), &rows)
	})
	if err != nil {
		return nil, err
	}
	if c.useSamples(backend.Services, len(rows)) {
		return SampleServices(), nil
	}
	return rows, nil
}

// ListTeam returns every team member, or the samples when there are none.
func (c *Client) ListTeam(ctx context.Context) ([]TeamMember, error) {
	var rows []TeamMember
	err := c.call(ctx, "list team", func(ctx context.Context) error {
		return c.store.Select(ctx, backend.From(backend.Team), &rows)
	})
	if err != nil {
		return nil, err
	}
	if c.useSamples(backend.Team, len(rows)) {
		return SampleTeam(), nil
	}
	return rows, nil
}

// GetService finds a service by id among ListServices.
func (c *Client) GetService(ctx context.Context, id string) (Service, error) {
	services, err := c.ListServices(ctx)
	if err != nil {
		return Service{}, err
	}
	for _, s := range services {
		if s.ID == id {
			return s, nil
		}
	}
	return Service{}, fmt.Errorf("get service %q: %w", id, ErrNotFound)
}

// ListAllServices returns stored services newest first, without samples.
func (c *Client) ListAllServices(ctx context.Context) ([]Service, error) {
	var rows []Service
	err := c.call(ctx, "list all services", func(ctx context.Context) error {
		return c.store.Select(ctx, backend.From(backend.Services).Order("created_at", true), &rows)
	})
	return rows, err
}

// GetServiceByID loads a stored service.
func (c *Client) GetServiceByID(ctx context.Context, id string) (Service, error) {
	var s Service
	err := c.call(ctx, "get service", func(ctx context.Context) error {
		return c.store.Get(ctx, backend.From(backend.Services).Eq("id", id), &s)
	})
	return s, err
}

// ListBlogPosts returns posts newest first. publishedOnly drops drafts.
func (c *Client) ListBlogPosts(ctx context.Context, publishedOnly bool) ([]BlogPost, error) {
	q := backend.From(backend.BlogPosts).Order("created_at", true)
	if publishedOnly {
		q = q.Eq("published", true)
	}
	var rows []BlogPost
	err := c.call(ctx, "list blog posts", func(ctx context.Context) error {
		return c.store.Select(ctx, q, &rows)
	})
	return rows, err
}

// GetBlogPost returns the published post with slug.
func (c *Client) GetBlogPost(ctx context.Context, slug string) (BlogPost, error) {
	var p BlogPost
	err := c.call(ctx, "get blog post", func(ctx context.Context) error {
		return c.store.Get(ctx, backend.From(backend.BlogPosts).Eq("slug", slug).Eq("published", true), &p)
	})
	return p, err
}

// GetBlogPostByID loads a post whether or not it is published.
func (c *Client) GetBlogPostByID(ctx context.Context, id string) (BlogPost, error) {
	var p BlogPost
	err := c.call(ctx, "get blog post by id", func(ctx context.Context) error {
		return c.store.Get(ctx, backend.From(backend.BlogPosts).Eq("id", id), &p)
	})
	return p, err
}

// ListContacts returns contact submissions newest first.
func (c *Client) ListContacts(ctx context.Context) ([]ContactSubmission, error) {
	var rows []ContactSubmission
	err := c.call(ctx, "list contacts", func(ctx context.Context) error {
		return c.store.Select(ctx, backend.From(backend.Contacts).Order("timestamp", true), &rows)
	})
	return rows, err
}

// SubmitContact validates f and stores it as a new submission.
func (c *Client) SubmitContact(ctx context.Context, f ContactFields) (ContactSubmission, error) {
	f = trimContact(f)
	if err := Validate(f); err != nil {
		metrics.ContactSubmissions.WithLabelValues("invalid").Inc()
		return ContactSubmission{}, err
	}
	if f.LeadType == "" {
		f.LeadType = LeadGeneralInquiry
	}
	sub := ContactSubmission{
		ID:        c.newID(),
		Name:      f.Name,
		Email:     f.Email,
		Company:   f.Company,
		Phone:     f.Phone,
		Message:   f.Message,
		LeadType:  f.LeadType,
		Timestamp: c.Now(),
	}
	err := c.call(ctx, "submit contact", func(ctx context.Context) error {
		return c.store.Insert(ctx, backend.Contacts, sub)
	})
	metrics.ContactSubmissions.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return ContactSubmission{}, fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	c.log.Infow("contact submitted", "id", sub.ID, "lead_type", sub.LeadType)
	return sub, nil
}

func trimContact(f ContactFields) ContactFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Company = strings.TrimSpace(f.Company)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Message = strings.TrimSpace(f.Message)
	f.LeadType = strings.TrimSpace(f.LeadType)
	return f
}

func (c *Client) CreateBlogPost(ctx context.Context, p BlogPost) error {
	err := c.call(ctx, "create blog post", func(ctx context.Context) error {
		return c.store.Insert(ctx, backend.BlogPosts, p)
	})
	return slugConflict(err)
}

func (c *Client) UpdateBlogPost(ctx context.Context, p BlogPost) error {
	err := c.call(ctx, "update blog post", func(ctx context.Context) error {
		return c.store.Update(ctx, backend.BlogPosts, p.ID, p)
	})
	return slugConflict(err)
}

func (c *Client) DeleteBlogPost(ctx context.Context, id string) error {
	return c.call(ctx, "delete blog post", func(ctx context.Context) error {
		return c.store.Delete(ctx, backend.BlogPosts, id)
	})
}

func (c *Client) CreateService(ctx context.Context, s Service) error {
	return c.call(ctx, "create service", func(ctx context.Context) error {
		return c.store.Insert(ctx, backend.Services, s)
	})
}

func (c *Client) UpdateService(ctx context.Context, s Service) error {
	return c.call(ctx, "update service", func(ctx context.Context) error {
		return c.store.Update(ctx, backend.Services, s.ID, s)
	})
}

func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.call(ctx, "delete service", func(ctx context.Context) error {
		return c.store.Delete(ctx, backend.Services, id)
	})
}

// slugConflict reports a duplicate slug as a field error.
func slugConflict(err error) error {
	if errors.Is(err, backend.ErrConflict) {
		return FieldError("slug", "is already used by another post")
	}
	return err
}

// UploadImage stores r in the image bucket under name and returns its
// public URL.
func (c *Client) UploadImage(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	err := c.call(ctx, "upload image", func(ctx context.Context) error {
		return c.storage.Upload(ctx, ImageBucket, name, r, contentType)
	})
	metrics.Uploads.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return c.storage.PublicURL(ImageBucket, name), nil
}

// Stats returns the home page figures.
func (c *Client) Stats() Stats {
	return SampleStats()
}
