package admin

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/mevoq/site/content"
	"github.com/mevoq/site/metrics"
)

const MaxUploadSize = 10 << 20 // 10MB

// UploadFeaturedImage stores an image for an open post form and sets the
// form's featured image to its public URL. On failure the form is left
// unchanged. Only one upload per form runs at a time.
func (c *Controller) UploadFeaturedImage(ctx context.Context, owner, formID, filename string, r io.Reader) (string, error) {
	f, err := c.posts.get(owner, formID)
	if err != nil {
		return "", err
	}
	if !f.beginUpload() {
		return "", ErrUploadInFlight
	}
	defer f.endUpload()

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: read: %w", content.ErrUpload, err)
	}
	if len(data) > MaxUploadSize {
		return "", fmt.Errorf("%w: file is larger than %d MB", content.ErrUpload, MaxUploadSize>>20)
	}
	ext, err := prepareImage(data, filename)
	if err != nil {
		return "", err
	}

	name := c.newID() + ext
	url, err := c.repo.UploadImage(ctx, name, bytes.NewReader(data), http.DetectContentType(data))
	if err != nil {
		c.log.Warnw("featured image upload failed", "form", formID, "err", err)
		return "", err
	}
	f.update(func(v *PostForm) { v.FeaturedImage = url })
	c.log.Infow("featured image uploaded", "form", formID, "url", url, "bytes", len(data))
	return url, nil
}

// prepareImage checks that data is an image and returns the extension to
// store it under. The bytes are stored as uploaded.
func prepareImage(data []byte, filename string) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("%w: not a supported image (jpeg, png, gif, webp)", content.ErrUpload)
	}
	return extension(filename, format), nil
}

// extension keeps the uploaded file's extension, falling back to the
// decoded format when the name has none.
func extension(filename, format string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 5 || strings.Trim(ext[1:], "abcdefghijklmnopqrstuvwxyz0123456789") != "" {
		if format == "jpeg" {
			return ".jpg"
		}
		return "." + format
	}
	return ext
}
