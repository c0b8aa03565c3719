// Package content is the site's data model and the client that reads and
// writes it through the backend: blog posts, services, team members,
// testimonials and contact submissions.
package content

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	LeadGeneralInquiry = "general_inquiry"
	LeadStrategyCall   = "strategy_call"

	// ImageBucket holds blog post images.
	ImageBucket = "blog-images"

	DefaultCategory = "general"
)

// PostCategories are the categories offered by the admin post form.
var PostCategories = []string{"general", "regulatory", "compliance", "quality", "strategy"}

// BlogPost is an article shown on /blog.
type BlogPost struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Slug          string     `db:"slug" json:"slug"`
	Excerpt       string     `db:"excerpt" json:"excerpt"`
	Content       string     `db:"content" json:"content"`
	Author        string     `db:"author" json:"author"`
	AuthorRole    string     `db:"author_role" json:"author_role"`
	FeaturedImage string     `db:"featured_image" json:"featured_image,omitempty"`
	Category      string     `db:"category" json:"category"`
	Tags          StringList `db:"tags" json:"tags"`
	Published     bool       `db:"published" json:"published"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Link is the public path of the post.
func (p BlogPost) Link() string {
	return "/blog/" + p.Slug
}

// Date is the publication time, or the creation time for drafts.
func (p BlogPost) Date() time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

// Service is a consulting offering.
type Service struct {
	ID               string     `db:"id" json:"id"`
	Title            string     `db:"title" json:"title"`
	Description      string     `db:"description" json:"description"`
	Icon             Icon       `db:"icon" json:"icon"`
	Features         StringList `db:"features" json:"features"`
	CaseStudySnippet string     `db:"case_study_snippet" json:"case_study_snippet,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// Link is the public path of the service detail page.
func (s Service) Link() string {
	return "/services/" + s.ID
}

type TeamMember struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Role        string     `db:"role" json:"role"`
	Bio         string     `db:"bio" json:"bio"`
	Expertise   StringList `db:"expertise" json:"expertise"`
	AvatarURL   string     `db:"avatar_url" json:"avatar_url,omitempty"`
	LinkedInURL string     `db:"linkedin_url" json:"linkedin_url,omitempty"`
}

type Testimonial struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Role    string `db:"role" json:"role"`
	Company string `db:"company" json:"company"`
	Content string `db:"content" json:"content"`
	Rating  int    `db:"rating" json:"rating"`
}

// ContactSubmission is a stored contact form. It is never modified.
type ContactSubmission struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Company   string    `db:"company" json:"company"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Message   string    `db:"message" json:"message"`
	LeadType  string    `db:"lead_type" json:"lead_type"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// ContactFields is what a visitor enters in the contact form.
type ContactFields struct {
	Name     string `form:"name" validate:"required"`
	Email    string `form:"email" validate:"required,email"`
	Company  string `form:"company"`
	Phone    string `form:"phone"`
	Message  string `form:"message"`
	LeadType string `form:"lead_type"`
}

// Stats are the headline figures on the home page.
type Stats struct {
	SuccessfulSubmissions int `json:"successful_submissions"`
	ProjectWeeksSaved     int `json:"project_weeks_saved"`
	YearsExperience       int `json:"years_experience"`
	CountriesServed       int `json:"countries_served"`
}

// StringList is an ordered list of strings stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("content: cannot scan %T into StringList", src)
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("content: decode string list: %w", err)
	}
	*l = out
	return nil
}
