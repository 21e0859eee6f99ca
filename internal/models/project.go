package models

import (
	"strings"
	"time"

	"portfolio-site/internal/errs"
)

type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Technologies []string  `json:"technologies"`
	ImageURL     string    `json:"image_url"`
	Link         string    `json:"link"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProjectFields are the caller supplied columns of a project row. The id and
// timestamps are assigned by the backend.
type ProjectFields struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	ImageURL     string   `json:"image_url"`
	Link         string   `json:"link"`
}

func (p Project) Fields() ProjectFields {
	return ProjectFields{
		Title:        p.Title,
		Description:  p.Description,
		Technologies: p.Technologies,
		ImageURL:     p.ImageURL,
		Link:         p.Link,
	}
}

// TechnologiesText renders the technologies the way the edit form expects them.
func (p Project) TechnologiesText() string {
	return strings.Join(p.Technologies, ", ")
}

func (f ProjectFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return errs.NewValidationError("title", "title is required")
	}
	if len(f.Technologies) == 0 {
		return errs.NewValidationError("technologies", "at least one technology is required")
	}
	return nil
}

// ParseTechnologies splits a comma separated list, trimming whitespace
// around every element and keeping input order. Empty fragments are dropped.
func ParseTechnologies(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if tech := strings.TrimSpace(part); tech != "" {
			out = append(out, tech)
		}
	}
	return out
}
