package site

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mevoq/site/content"
	"github.com/mevoq/site/logging"
)

const (
	adminEmail    = "admin@mevoq.test"
	adminPassword = "correct horse battery"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	a := New(SiteConfig{
		URL:           "https://mevoq.test",
		SessionSecret: "test-session-secret-0123456789",
		DatabasePath:  filepath.Join(dir, "site.db"),
		StorageDir:    filepath.Join(dir, "storage"),
	}, WithLogger(logging.Nop()))
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// browser keeps cookies between requests like a real one would.
type browser struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, a *App) *browser {
	return &browser{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.app.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = &http.Cookie{Name: c.Name, Value: c.Value}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) csrf() string {
	if _, ok := b.cookies["_csrf"]; !ok {
		b.get("/contact")
	}
	require.Contains(b.t, b.cookies, "_csrf")
	return b.cookies["_csrf"].Value
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	form.Set("_csrf", b.csrf())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login() {
	b.t.Helper()
	require.NoError(b.t, b.app.Auth.CreateUser(context.Background(), adminEmail, adminPassword))
	rec := b.post("/login", url.Values{"email": {adminEmail}, "password": {adminPassword}})
	require.Equal(b.t, http.StatusSeeOther, rec.Code)
	require.Equal(b.t, "/admin", rec.Header().Get("Location"))
}

var formIDPattern = regexp.MustCompile(`name="form_id" value="([^"]+)"`)

func formID(t *testing.T, body string) string {
	t.Helper()
	m := formIDPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "form_id not found")
	return m[1]
}

func TestHomeServesSamplesOnEmptyStore(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	rec := b.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Regulatory Documentation")
	assert.Contains(t, rec.Body.String(), `"@type":"ProfessionalService"`)
	assert.Equal(t, "private, no-cache", rec.Header().Get("Cache-Control"))
}

func TestPublicPages(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	tests := []struct {
		path string
		code int
		want string
	}{
		{"/about", http.StatusOK, "About Us"},
		{"/services", http.StatusOK, "Risk Management"},
		{"/services/5", http.StatusOK, "Risk Management"},
		{"/services/99", http.StatusNotFound, "Page not found"},
		{"/blog", http.StatusOK, "No articles found"},
		{"/blog/missing", http.StatusNotFound, "Page not found"},
		{"/nope", http.StatusNotFound, "Page not found"},
		{"/public/site.css", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := b.get(tt.path)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestTrailingSlashRedirects(t *testing.T) {
	rec := newBrowser(t, newTestApp(t)).get("/about/")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/about", rec.Header().Get("Location"))
}

func TestRobotsAndSitemap(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	rec := b.get("/robots.txt")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: https://mevoq.test/sitemap.xml")
	assert.Contains(t, rec.Body.String(), "Disallow: /admin")

	rec = b.get("/sitemap.xml")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<loc>https://mevoq.test/services/1</loc>")
	assert.Contains(t, rec.Body.String(), "<loc>https://mevoq.test/contact</loc>")
}

func TestMetricsEndpoint(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.get("/")
	rec := b.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mevoq_backend_calls_total")
	assert.Contains(t, rec.Body.String(), "mevoq_http_requests_total")
}

func TestContactSubmission(t *testing.T) {
	a := newTestApp(t)
	b := newBrowser(t, a)

	rec := b.get("/contact")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="lead_type" value="strategy_call"`)

	rec = b.post("/contact", url.Values{"name": {"Jane Doe"}, "email": {"not-an-email"}, "lead_type": {"strategy_call"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be a valid email address")
	assert.Contains(t, rec.Body.String(), `value="Jane Doe"`)

	rec = b.post("/contact", url.Values{"name": {"Jane Doe"}, "email": {"jane@example.com"}, "message": {"Hello"}, "lead_type": {"strategy_call"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, b.get("/contact").Body.String(), "Thank you!")

	contacts, err := a.Content.ListContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Jane Doe", contacts[0].Name)
	assert.Equal(t, content.LeadStrategyCall, contacts[0].LeadType)
	assert.NotEmpty(t, contacts[0].ID)
}

func TestPostWithoutCSRFIsForbidden(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusForbidden, b.do(req).Code)
}

func TestAdminRequiresLogin(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	for _, path := range []string{"/admin", "/admin/posts/new", "/admin/services/new"} {
		rec := b.get(path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("HX-Request", "true")
	rec := b.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
}

func TestLoginRejectsBadPasswordAndLimits(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Auth.CreateUser(context.Background(), adminEmail, adminPassword))
	b := newBrowser(t, a)

	for i := 0; i < 5; i++ {
		rec := b.post("/login", url.Values{"email": {adminEmail}, "password": {"wrong"}})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid email or password.")
	}
	rec := b.post("/login", url.Values{"email": {adminEmail}, "password": {adminPassword}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLoginAndLogout(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.login()

	rec := b.get("/admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), adminEmail)
	assert.Contains(t, rec.Body.String(), `data-watch="admin"`)

	rec = b.get("/login")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	rec = b.post("/admin/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = b.get("/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func postValues(id string) url.Values {
	return url.Values{
		"form_id":   {id},
		"action":    {"save"},
		"title":     {"FDA Updates 2025"},
		"slug":      {"fda-updates-2025"},
		"excerpt":   {"What changed this year."},
		"content":   {"## Overview\n\nNew guidance."},
		"author":    {"Dr. Sarah Chen"},
		"category":  {"regulatory"},
		"tags":      {"fda, 2025"},
		"published": {"true"},
	}
}

func TestAdminCreatesPublishedPost(t *testing.T) {
	a := newTestApp(t)
	b := newBrowser(t, a)
	b.login()

	rec := b.get("/admin/posts/new")
	require.Equal(t, http.StatusOK, rec.Code)
	id := formID(t, rec.Body.String())

	rec = b.post("/admin/posts/slug", url.Values{"form_id": {id}, "title": {"FDA Updates 2025"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fda-updates-2025", rec.Body.String())

	rec = b.post("/admin/posts/save", postValues(id))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin?tab=blog", rec.Header().Get("Location"))
	assert.Contains(t, b.get("/admin?tab=blog").Body.String(), "Post created.")

	posts, err := a.Content.ListBlogPosts(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.NotNil(t, posts[0].PublishedAt)
	assert.Equal(t, content.StringList{"fda", "2025"}, posts[0].Tags)

	rec = b.get("/blog/fda-updates-2025")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<h2 id="overview">Overview</h2>`)

	assert.Contains(t, b.get("/feed.xml").Body.String(), "https://mevoq.test/blog/fda-updates-2025")
	assert.Contains(t, b.get("/blog?category=regulatory").Body.String(), "FDA Updates 2025")

	// The form closed on success.
	rec = b.post("/admin/posts/save", postValues(id))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, b.get("/admin").Body.String(), "This form has expired.")
}

func TestAdminPostValidationKeepsValues(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.login()
	id := formID(t, b.get("/admin/posts/new").Body.String())

	v := postValues(id)
	v.Set("excerpt", "")
	rec := b.post("/admin/posts/save", v)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "is required")
	assert.Contains(t, rec.Body.String(), `value="FDA Updates 2025"`)
	assert.Equal(t, id, formID(t, rec.Body.String()))
}

func TestAdminUploadsFeaturedImage(t *testing.T) {
	a := newTestApp(t)
	b := newBrowser(t, a)
	b.login()
	id := formID(t, b.get("/admin/posts/new").Body.String())

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := postValues(id)
	fields.Set("action", "upload")
	for k, vals := range fields {
		require.NoError(t, mw.WriteField(k, vals[0]))
	}
	require.NoError(t, mw.WriteField("_csrf", b.csrf()))
	fw, err := mw.CreateFormFile("image", "chart.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/posts/save", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := b.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Image uploaded.")

	m := regexp.MustCompile(`https://mevoq\.test/storage/blog-images/([0-9a-f-]+\.png)`).FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2)
	_, err = os.Stat(filepath.Join(a.Storage.Root(), content.ImageBucket, m[1]))
	assert.NoError(t, err)

	rec = b.get("/storage/blog-images/" + m[1])
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, img.Bytes(), rec.Body.Bytes())
}

func TestAdminDeleteNeedsConfirmation(t *testing.T) {
	a := newTestApp(t)
	b := newBrowser(t, a)
	b.login()

	ctx := context.Background()
	now := a.Content.Now()
	require.NoError(t, a.Content.CreateBlogPost(ctx, content.BlogPost{
		ID: "p1", Title: "Draft", Slug: "draft", Excerpt: "x", Content: "x", Author: "x",
		Category: "general", CreatedAt: now, UpdatedAt: now,
	}))

	rec := b.get("/admin/posts/p1/delete")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Draft")

	rec = b.post("/admin/posts/p1/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/posts/p1/delete", rec.Header().Get("Location"))
	_, err := a.Content.GetBlogPostByID(ctx, "p1")
	require.NoError(t, err)

	rec = b.post("/admin/posts/p1/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	_, err = a.Content.GetBlogPostByID(ctx, "p1")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestAdminServiceLifecycle(t *testing.T) {
	a := newTestApp(t)
	b := newBrowser(t, a)
	b.login()
	id := formID(t, b.get("/admin/services/new").Body.String())

	rec := b.post("/admin/services/save", url.Values{
		"form_id":     {id},
		"action":      {"save"},
		"title":       {"Pharmacovigilance"},
		"icon":        {"shield-check"},
		"description": {"Safety monitoring."},
		"features":    {"Signal detection\n\nPSUR authoring\n"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin?tab=services", rec.Header().Get("Location"))

	services, err := a.Content.ListAllServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, content.StringList{"Signal detection", "PSUR authoring"}, services[0].Features)

	// Stored services replace the samples on the public page.
	body := b.get("/services").Body.String()
	assert.Contains(t, body, "Pharmacovigilance")
	assert.NotContains(t, body, "Risk Management")
}

func TestBlogFragment(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	req := httptest.NewRequest(http.MethodGet, "/blog?category=quality", nil)
	req.Header.Set("HX-Request", "true")
	rec := b.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<div id="post-grid">`))
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, "No articles found in")
}
