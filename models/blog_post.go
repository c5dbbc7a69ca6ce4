package models

import (
	"time"
)

// BlogPost is the admin view of a blog entry as the API stores it.
type BlogPost struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Excerpt         string     `json:"excerpt"`
	RichDescription string     `json:"richDescription"`
	Category        string     `json:"category"`
	Tags            []string   `json:"tags"`
	Published       bool       `json:"published"`
	Image           string     `json:"image,omitempty"`
	CreatedAt       time.Time  `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// BlogPostForm is the editor's draft. Tags stay in their comma-separated form until submit.
type BlogPostForm struct {
	Title           string `json:"title" validate:"required"`
	Slug            string `json:"slug"`
	Excerpt         string `json:"excerpt" validate:"required"`
	RichDescription string `json:"richDescription" validate:"required"`
	Category        string `json:"category" validate:"required"`
	Tags            string `json:"tags"`
	Published       bool   `json:"published"`
	Image           string `json:"image,omitempty"`
}

// FormFromBlogPost loads an existing post into an editable draft.
func FormFromBlogPost(p BlogPost) BlogPostForm {
	return BlogPostForm{
		Title:           p.Title,
		Slug:            p.Slug,
		Excerpt:         p.Excerpt,
		RichDescription: p.RichDescription,
		Category:        p.Category,
		Tags:            JoinTags(p.Tags),
		Published:       p.Published,
		Image:           p.Image,
	}
}

// BlogPostPayload is the body sent on create and update.
type BlogPostPayload struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Excerpt         string   `json:"excerpt"`
	RichDescription string   `json:"richDescription"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
	Published       bool     `json:"published"`
	Image           string   `json:"image,omitempty"`
}

func (f BlogPostForm) Payload(slug string) BlogPostPayload {
	return BlogPostPayload{
		Title:           f.Title,
		Slug:            slug,
		Excerpt:         f.Excerpt,
		RichDescription: f.RichDescription,
		Category:        f.Category,
		Tags:            SplitTags(f.Tags),
		Published:       f.Published,
		Image:           f.Image,
	}
}
