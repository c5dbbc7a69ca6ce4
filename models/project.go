package models

import "time"

// Project statuses used by the admin editor.
const (
	ProjectStatusDraft     = "draft"
	ProjectStatusPublished = "published"
	ProjectStatusArchived  = "archived"
)

// Project is a marketplace entry, optionally paid, optionally shipping a ZIP asset.
type Project struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Description     string     `json:"description"`
	RichDescription string     `json:"richDescription"`
	Category        string     `json:"category"`
	Tags            []string   `json:"tags"`
	Status          string     `json:"status"`
	Image           string     `json:"image,omitempty"`
	ZipURL          string     `json:"zipUrl,omitempty"`
	IsPaid          bool       `json:"isPaid"`
	Price           int64      `json:"price"`
	Currency        string     `json:"currency,omitempty"`
	DownloadLimit   int        `json:"downloadLimit"`
	DownloadCount   int        `json:"downloadCount"`
	CreatedAt       time.Time  `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// DownloadsExhausted reports whether the per-buyer download limit is used up. Zero means unlimited.
func (p Project) DownloadsExhausted() bool {
	return p.DownloadLimit > 0 && p.DownloadCount >= p.DownloadLimit
}

// ProjectForm is the editor's draft of a project.
type ProjectForm struct {
	Title           string `json:"title" validate:"required"`
	Slug            string `json:"slug"`
	Description     string `json:"description" validate:"required"`
	RichDescription string `json:"richDescription"`
	Category        string `json:"category" validate:"required"`
	Tags            string `json:"tags"`
	Status          string `json:"status" validate:"omitempty,oneof=draft published archived"`
	Image           string `json:"image,omitempty"`
	ZipURL          string `json:"zipUrl,omitempty"`
	IsPaid          bool   `json:"isPaid"`
	Price           int64  `json:"price" validate:"required_if=IsPaid true,gte=0"`
	Currency        string `json:"currency" validate:"required_if=IsPaid true"`
	DownloadLimit   int    `json:"downloadLimit" validate:"gte=0"`
}

func FormFromProject(p Project) ProjectForm {
	return ProjectForm{
		Title:           p.Title,
		Slug:            p.Slug,
		Description:     p.Description,
		RichDescription: p.RichDescription,
		Category:        p.Category,
		Tags:            JoinTags(p.Tags),
		Status:          p.Status,
		Image:           p.Image,
		ZipURL:          p.ZipURL,
		IsPaid:          p.IsPaid,
		Price:           p.Price,
		Currency:        p.Currency,
		DownloadLimit:   p.DownloadLimit,
	}
}

// ProjectPayload is the body sent on create and update.
type ProjectPayload struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Description     string   `json:"description"`
	RichDescription string   `json:"richDescription"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
	Status          string   `json:"status"`
	Image           string   `json:"image,omitempty"`
	ZipURL          string   `json:"zipUrl,omitempty"`
	IsPaid          bool     `json:"isPaid"`
	Price           int64    `json:"price"`
	Currency        string   `json:"currency,omitempty"`
	DownloadLimit   int      `json:"downloadLimit"`
}

func (f ProjectForm) Payload(slug string) ProjectPayload {
	status := f.Status
	if status == "" {
		status = ProjectStatusDraft
	}

	payload := ProjectPayload{
		Title:           f.Title,
		Slug:            slug,
		Description:     f.Description,
		RichDescription: f.RichDescription,
		Category:        f.Category,
		Tags:            SplitTags(f.Tags),
		Status:          status,
		Image:           f.Image,
		ZipURL:          f.ZipURL,
		IsPaid:          f.IsPaid,
		DownloadLimit:   f.DownloadLimit,
	}
	if f.IsPaid {
		payload.Price = f.Price
		payload.Currency = f.Currency
	}
	return payload
}

// ProjectPayment is a completed or attempted purchase of a single project.
type ProjectPayment struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Date      time.Time `json:"date"`
}
