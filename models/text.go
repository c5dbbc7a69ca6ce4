package models

import (
	"regexp"
	"strings"
)

var (
	nonWordChars = regexp.MustCompile(`[^\w\s-]`)
	separatorRun = regexp.MustCompile(`[\s-]+`)
)

// GenerateSlug turns a title into a URL slug: lowercase, punctuation dropped,
// whitespace and hyphen runs collapsed into one hyphen, no leading or trailing hyphen.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = nonWordChars.ReplaceAllString(slug, "")
	slug = separatorRun.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// SplitTags parses the comma-separated tag field. Entries are trimmed and blanks dropped.
func SplitTags(field string) []string {
	tags := []string{}
	for _, tag := range strings.Split(field, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// JoinTags renders tags back into the editable field form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
