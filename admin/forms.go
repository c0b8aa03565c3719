package admin

import (
	"strings"
	"time"

	"github.com/mevoq/site/content"
)

// PostForm is the blog post editor. Tags are comma-separated text.
type PostForm struct {
	Title         string `form:"title" validate:"required"`
	Slug          string `form:"slug" validate:"required"`
	Excerpt       string `form:"excerpt" validate:"required"`
	Content       string `form:"content" validate:"required"`
	Author        string `form:"author" validate:"required"`
	AuthorRole    string `form:"author_role"`
	FeaturedImage string `form:"featured_image"`
	Category      string `form:"category"`
	Tags          string `form:"tags"`
	Published     bool   `form:"published"`
}

// ServiceForm is the service editor. Features are one per line.
type ServiceForm struct {
	Title            string `form:"title" validate:"required"`
	Icon             string `form:"icon" validate:"required"`
	Description      string `form:"description" validate:"required"`
	Features         string `form:"features" validate:"required"`
	CaseStudySnippet string `form:"case_study_snippet"`
}

func blankPostForm() PostForm {
	return PostForm{Category: content.DefaultCategory}
}

func blankServiceForm() ServiceForm {
	return ServiceForm{Icon: content.IconMapPin.String()}
}

func postFormFrom(p content.BlogPost) PostForm {
	return PostForm{
		Title:         p.Title,
		Slug:          p.Slug,
		Excerpt:       p.Excerpt,
		Content:       p.Content,
		Author:        p.Author,
		AuthorRole:    p.AuthorRole,
		FeaturedImage: p.FeaturedImage,
		Category:      p.Category,
		Tags:          content.JoinTags(p.Tags),
		Published:     p.Published,
	}
}

func serviceFormFrom(s content.Service) ServiceForm {
	return ServiceForm{
		Title:            s.Title,
		Icon:             s.Icon.String(),
		Description:      s.Description,
		Features:         content.JoinLines(s.Features),
		CaseStudySnippet: s.CaseStudySnippet,
	}
}

func (f PostForm) trimmed() PostForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Excerpt = strings.TrimSpace(f.Excerpt)
	f.Author = strings.TrimSpace(f.Author)
	f.AuthorRole = strings.TrimSpace(f.AuthorRole)
	f.FeaturedImage = strings.TrimSpace(f.FeaturedImage)
	f.Category = strings.TrimSpace(f.Category)
	if strings.TrimSpace(f.Content) == "" {
		f.Content = ""
	}
	return f
}

func (f ServiceForm) trimmed() ServiceForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Icon = strings.TrimSpace(f.Icon)
	f.Description = strings.TrimSpace(f.Description)
	f.CaseStudySnippet = strings.TrimSpace(f.CaseStudySnippet)
	if len(content.SplitLines(f.Features)) == 0 {
		f.Features = ""
	}
	return f
}

// PublishedAt applies the publication timestamp rule: nil while
// unpublished, kept across saves while published, now on the save that
// publishes.
func PublishedAt(wasPublished bool, prev *time.Time, published bool, now time.Time) *time.Time {
	if !published {
		return nil
	}
	if wasPublished && prev != nil {
		return prev
	}
	return &now
}

// applyPost validates f and writes it over base.
func applyPost(base content.BlogPost, f PostForm, now time.Time) (content.BlogPost, error) {
	f = f.trimmed()
	if err := content.Validate(f); err != nil {
		return base, err
	}
	if content.DeriveSlug(f.Slug) != f.Slug {
		return base, content.FieldError("slug", "may only contain lowercase letters, digits and single hyphens")
	}
	if f.Category == "" {
		f.Category = content.DefaultCategory
	}
	p := base
	p.Title = f.Title
	p.Slug = f.Slug
	p.Excerpt = f.Excerpt
	p.Content = f.Content
	p.Author = f.Author
	p.AuthorRole = f.AuthorRole
	p.FeaturedImage = f.FeaturedImage
	p.Category = f.Category
	p.Tags = content.SplitTags(f.Tags)
	p.PublishedAt = PublishedAt(base.Published, base.PublishedAt, f.Published, now)
	p.Published = f.Published
	p.UpdatedAt = now
	return p, nil
}

// applyService validates f and writes it over base.
func applyService(base content.Service, f ServiceForm) (content.Service, error) {
	f = f.trimmed()
	if err := content.Validate(f); err != nil {
		return base, err
	}
	icon, err := content.ParseIcon(f.Icon)
	if err != nil {
		return base, content.FieldError("icon", "is not a known icon")
	}
	s := base
	s.Title = f.Title
	s.Icon = icon
	s.Description = f.Description
	s.Features = content.SplitLines(f.Features)
	s.CaseStudySnippet = f.CaseStudySnippet
	return s, nil
}
