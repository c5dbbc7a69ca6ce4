package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestPendingUploadColumns(t *testing.T) {
	columns, err := modelColumnNames(PendingUpload{}, schema.NamingStrategy{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"id", "entity_kind", "entity_id", "slug", "asset_kind",
		"file_name", "last_error", "attempts", "created_at", "updated_at",
	}, columns)
}

func TestFindColumnMismatches(t *testing.T) {
	got := findColumnMismatches([]string{"id", "slug", "legacy_flag"}, []string{"id", "slug"})
	assert.Equal(t, []string{"legacy_flag"}, got)
	assert.Empty(t, findColumnMismatches([]string{"id"}, []string{"id"}))
}
