package site

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mevoq/site/admin"
	"github.com/mevoq/site/auth"
	"github.com/mevoq/site/content"
	"github.com/mevoq/site/views"
)

var adminTabs = map[string]bool{"blog": true, "services": true, "contacts": true}

func (a *App) adminPage(c echo.Context, title string) views.Page {
	p := a.page(c, views.PageMeta{Title: title})
	p.Watch = "admin"
	return p
}

// backToAdmin redirects to the dashboard tab with a notification.
func backToAdmin(c echo.Context, tab, kind, msg string) error {
	if msg != "" {
		addFlash(c, kind, msg)
	}
	return c.Redirect(http.StatusSeeOther, "/admin?tab="+tab)
}

// loadFailure explains why a record could not be opened.
func loadFailure(err error, what string) string {
	if errors.Is(err, content.ErrNotFound) {
		return "That " + what + " no longer exists."
	}
	return "Could not load the " + what + ". Please try again."
}

func (a *App) handleAdmin(c echo.Context) error {
	tab := c.QueryParam("tab")
	if !adminTabs[tab] {
		tab = "blog"
	}
	d := views.AdminData{
		Tab:       tab,
		Dashboard: a.Admin.Refresh(c.Request().Context()),
	}
	if s := auth.SessionFrom(c); s != nil {
		d.Email = s.Email
	}
	d.Page = a.adminPage(c, "Admin Dashboard")
	return Render(c, a.Views.Admin(d))
}

func (a *App) handleLogout(c echo.Context) error {
	if err := a.Auth.SignOut(c.Request().Context(), clientID(c)); err != nil {
		a.Log.Warnw("sign out failed", "err", err)
		addFlash(c, "error", "Sign out failed. Please try again.")
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// Posts

func (a *App) renderPostForm(c echo.Context, code int, st admin.FormState[admin.PostForm], verr *content.ValidationError, flashes ...views.Flash) error {
	title := "New Post"
	if st.Mode == admin.ModeEdit {
		title = "Edit Post"
	}
	p := a.adminPage(c, title)
	p.Flashes = append(p.Flashes, flashes...)
	return RenderStatus(c, code, a.Views.AdminPostForm(views.PostFormData{
		Page:       p,
		Form:       st,
		Errors:     verr,
		Categories: content.PostCategories,
	}))
}

func (a *App) handleNewPost(c echo.Context) error {
	st, err := a.Admin.OpenPost(c.Request().Context(), clientID(c), "")
	if err != nil {
		return err
	}
	return a.renderPostForm(c, http.StatusOK, st, nil)
}

func (a *App) handleEditPost(c echo.Context) error {
	st, err := a.Admin.OpenPost(c.Request().Context(), clientID(c), c.Param("id"))
	if err != nil {
		return backToAdmin(c, "blog", "error", loadFailure(err, "post"))
	}
	return a.renderPostForm(c, http.StatusOK, st, nil)
}

// handlePostSlug answers title edits on the create form with the derived
// slug as plain text.
func (a *App) handlePostSlug(c echo.Context) error {
	values, err := a.Admin.SetPostTitle(clientID(c), c.FormValue("form_id"), c.FormValue("title"))
	if err != nil {
		return c.NoContent(http.StatusNotFound)
	}
	return c.String(http.StatusOK, values.Slug)
}

func (a *App) handleSavePost(c echo.Context) error {
	owner := clientID(c)
	formID := c.FormValue("form_id")
	var values admin.PostForm
	if err := c.Bind(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest).SetInternal(err)
	}

	switch c.FormValue("action") {
	case "cancel":
		a.Admin.CancelPost(owner, formID)
		return backToAdmin(c, "blog", "", "")
	case "upload":
		return a.uploadPostImage(c, owner, formID, values)
	}

	st, err := a.Admin.PostForm(owner, formID)
	if err != nil {
		return backToAdmin(c, "blog", "error", "This form has expired. Your changes were not saved.")
	}
	if _, err := a.Admin.SubmitPost(c.Request().Context(), owner, formID, values); err != nil {
		if errors.Is(err, admin.ErrFormNotFound) {
			return backToAdmin(c, "blog", "error", "This form has expired. Your changes were not saved.")
		}
		st.Values = values
		return a.formFailure(c, err, func(code int, verr *content.ValidationError, f ...views.Flash) error {
			return a.renderPostForm(c, code, st, verr, f...)
		})
	}
	msg := "Post created."
	if st.Mode == admin.ModeEdit {
		msg = "Post updated."
	}
	return backToAdmin(c, "blog", "success", msg)
}

func (a *App) uploadPostImage(c echo.Context, owner, formID string, values admin.PostForm) error {
	if err := a.Admin.KeepPostValues(owner, formID, values); err != nil {
		return backToAdmin(c, "blog", "error", "This form has expired. Your changes were not saved.")
	}
	rerender := func(code int, verr *content.ValidationError, f ...views.Flash) error {
		st, err := a.Admin.PostForm(owner, formID)
		if err != nil {
			return backToAdmin(c, "blog", "error", "This form has expired. Your changes were not saved.")
		}
		return a.renderPostForm(c, code, st, verr, f...)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return rerender(http.StatusUnprocessableEntity, content.FieldError("featured_image", "choose an image to upload"))
	}
	if fh.Size > admin.MaxUploadSize {
		return rerender(http.StatusUnprocessableEntity, content.FieldError("featured_image", "must be 10 MB or smaller"))
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err := a.Admin.UploadFeaturedImage(c.Request().Context(), owner, formID, fh.Filename, src); err != nil {
		if errors.Is(err, admin.ErrUploadInFlight) {
			return rerender(http.StatusConflict, nil, views.Flash{Kind: "error", Message: "An upload is already in progress."})
		}
		a.Log.Warnw("image upload failed", "file", fh.Filename, "err", err)
		return rerender(http.StatusUnprocessableEntity, content.FieldError("featured_image", "upload failed: not a supported image or storage is unavailable"))
	}
	return rerender(http.StatusOK, nil, views.Flash{Kind: "success", Message: "Image uploaded."})
}

// formFailure maps a failed submit to a re-rendered form. The form keeps
// the values the user entered.
func (a *App) formFailure(c echo.Context, err error, render func(int, *content.ValidationError, ...views.Flash) error) error {
	var verr *content.ValidationError
	switch {
	case errors.As(err, &verr):
		return render(http.StatusUnprocessableEntity, verr)
	case errors.Is(err, admin.ErrSubmitInFlight):
		return render(http.StatusConflict, nil, views.Flash{Kind: "error", Message: "This form is already being saved."})
	default:
		a.Log.Errorw("admin save failed", "path", c.Path(), "err", err)
		return render(http.StatusServiceUnavailable, nil, views.Flash{Kind: "error", Message: "Save failed. Your changes are still here; please try again."})
	}
}

func (a *App) handleConfirmDeletePost(c echo.Context) error {
	post, err := a.Content.GetBlogPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return backToAdmin(c, "blog", "error", loadFailure(err, "post"))
	}
	return Render(c, a.Views.AdminConfirm(views.ConfirmData{
		Page:   a.adminPage(c, "Delete Post"),
		Kind:   "post",
		ID:     post.ID,
		Title:  post.Title,
		Action: "/admin/posts/" + post.ID + "/delete",
		Back:   "/admin?tab=blog",
	}))
}

func (a *App) handleDeletePost(c echo.Context) error {
	id := c.Param("id")
	err := a.Admin.DeletePost(c.Request().Context(), id, c.FormValue("confirm") == "yes")
	switch {
	case err == nil:
		return backToAdmin(c, "blog", "success", "Post deleted.")
	case errors.Is(err, admin.ErrNotConfirmed):
		return c.Redirect(http.StatusSeeOther, "/admin/posts/"+id+"/delete")
	case errors.Is(err, content.ErrNotFound):
		return backToAdmin(c, "blog", "error", "That post no longer exists.")
	default:
		a.Log.Errorw("delete post failed", "id", id, "err", err)
		return backToAdmin(c, "blog", "error", "Delete failed. Please try again.")
	}
}

// Services

func (a *App) renderServiceForm(c echo.Context, code int, st admin.FormState[admin.ServiceForm], verr *content.ValidationError, flashes ...views.Flash) error {
	title := "New Service"
	if st.Mode == admin.ModeEdit {
		title = "Edit Service"
	}
	p := a.adminPage(c, title)
	p.Flashes = append(p.Flashes, flashes...)
	return RenderStatus(c, code, a.Views.AdminServiceForm(views.ServiceFormData{
		Page:   p,
		Form:   st,
		Errors: verr,
		Icons:  content.Icons(),
	}))
}

func (a *App) handleNewService(c echo.Context) error {
	st, err := a.Admin.OpenService(c.Request().Context(), clientID(c), "")
	if err != nil {
		return err
	}
	return a.renderServiceForm(c, http.StatusOK, st, nil)
}

func (a *App) handleEditService(c echo.Context) error {
	st, err := a.Admin.OpenService(c.Request().Context(), clientID(c), c.Param("id"))
	if err != nil {
		return backToAdmin(c, "services", "error", loadFailure(err, "service"))
	}
	return a.renderServiceForm(c, http.StatusOK, st, nil)
}

func (a *App) handleSaveService(c echo.Context) error {
	owner := clientID(c)
	formID := c.FormValue("form_id")
	if c.FormValue("action") == "cancel" {
		a.Admin.CancelService(owner, formID)
		return backToAdmin(c, "services", "", "")
	}

	var values admin.ServiceForm
	if err := c.Bind(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest).SetInternal(err)
	}
	st, err := a.Admin.ServiceForm(owner, formID)
	if err != nil {
		return backToAdmin(c, "services", "error", "This form has expired. Your changes were not saved.")
	}
	if _, err := a.Admin.SubmitService(c.Request().Context(), owner, formID, values); err != nil {
		if errors.Is(err, admin.ErrFormNotFound) {
			return backToAdmin(c, "services", "error", "This form has expired. Your changes were not saved.")
		}
		st.Values = values
		return a.formFailure(c, err, func(code int, verr *content.ValidationError, f ...views.Flash) error {
			return a.renderServiceForm(c, code, st, verr, f...)
		})
	}
	msg := "Service created."
	if st.Mode == admin.ModeEdit {
		msg = "Service updated."
	}
	return backToAdmin(c, "services", "success", msg)
}

func (a *App) handleConfirmDeleteService(c echo.Context) error {
	s, err := a.Content.GetServiceByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return backToAdmin(c, "services", "error", loadFailure(err, "service"))
	}
	return Render(c, a.Views.AdminConfirm(views.ConfirmData{
		Page:   a.adminPage(c, "Delete Service"),
		Kind:   "service",
		ID:     s.ID,
		Title:  s.Title,
		Action: "/admin/services/" + s.ID + "/delete",
		Back:   "/admin?tab=services",
	}))
}

func (a *App) handleDeleteService(c echo.Context) error {
	id := c.Param("id")
	err := a.Admin.DeleteService(c.Request().Context(), id, c.FormValue("confirm") == "yes")
	switch {
	case err == nil:
		return backToAdmin(c, "services", "success", "Service deleted.")
	case errors.Is(err, admin.ErrNotConfirmed):
		return c.Redirect(http.StatusSeeOther, "/admin/services/"+id+"/delete")
	case errors.Is(err, content.ErrNotFound):
		return backToAdmin(c, "services", "error", "That service no longer exists.")
	default:
		a.Log.Errorw("delete service failed", "id", id, "err", err)
		return backToAdmin(c, "services", "error", "Delete failed. Please try again.")
	}
}
