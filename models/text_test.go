package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello, World! 2024", "hello-world-2024"},
		{"hello-world-2024", "hello-world-2024"},
		{"  Spaces   and -- dashes  ", "spaces-and-dashes"},
		{"Red Team: Recon & OSINT", "red-team-recon-osint"},
		{"snake_case stays", "snake_case-stays"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := GenerateSlug(tt.title)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, GenerateSlug(got), "slug generation must be idempotent")
		})
	}
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitTags("a, b , ,c"))
	assert.Equal(t, []string{}, SplitTags(""))
	assert.Equal(t, []string{}, SplitTags(" , ,"))
}

func TestTagRoundTrip(t *testing.T) {
	tags := []string{"pentest", "red team", "osint"}
	assert.Equal(t, "pentest, red team, osint", JoinTags(tags))
	assert.Equal(t, tags, SplitTags(JoinTags(tags)))
}

func TestProjectFormPayloadDropsPricingForFreeProjects(t *testing.T) {
	form := ProjectForm{Title: "Scanner", Tags: "go, recon", Price: 500, Currency: "USD"}

	payload := form.Payload("scanner")
	assert.Equal(t, "scanner", payload.Slug)
	assert.Equal(t, ProjectStatusDraft, payload.Status)
	assert.Equal(t, []string{"go", "recon"}, payload.Tags)
	assert.Zero(t, payload.Price)
	assert.Empty(t, payload.Currency)

	form.IsPaid = true
	payload = form.Payload("scanner")
	assert.Equal(t, int64(500), payload.Price)
	assert.Equal(t, "USD", payload.Currency)
}

func TestDownloadsExhausted(t *testing.T) {
	assert.False(t, Project{DownloadLimit: 0, DownloadCount: 10}.DownloadsExhausted())
	assert.False(t, Project{DownloadLimit: 3, DownloadCount: 2}.DownloadsExhausted())
	assert.True(t, Project{DownloadLimit: 3, DownloadCount: 3}.DownloadsExhausted())
}
