package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliosite/folio/pkg/models"
)

func TestParsePostID(t *testing.T) {
	id, err := models.ParsePostID("abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id.String())
	assert.False(t, id.IsZero())

	_, err = models.ParsePostID("")
	assert.Error(t, err)
}

func TestPostIDRecordID(t *testing.T) {
	id := models.PostID("abc123")
	rid := id.RecordID()
	assert.Equal(t, models.BlogTable, rid.Table)
	assert.Equal(t, "abc123", rid.ID)
}

func TestReadTime(t *testing.T) {
	t.Run("RoundsUp", func(t *testing.T) {
		// 201 words is just over one minute at 200 words per minute.
		p := models.Post{Content: strings.Repeat("word ", 201)}
		assert.Equal(t, 2, p.ReadTime())
	})

	t.Run("ExactMinute", func(t *testing.T) {
		p := models.Post{Content: strings.Repeat("word ", 200)}
		assert.Equal(t, 1, p.ReadTime())
	})

	t.Run("ShortPost", func(t *testing.T) {
		p := models.Post{Content: "just a few words"}
		assert.Equal(t, 1, p.ReadTime())
	})

	t.Run("EmptyContent", func(t *testing.T) {
		p := models.Post{}
		assert.Equal(t, 0, p.ReadTime())
	})

	t.Run("MarkupDoesNotCount", func(t *testing.T) {
		// Tags are stripped before counting, so heavy markup around the
		// same prose reads the same.
		plain := models.Post{Content: strings.Repeat("word ", 199)}
		marked := models.Post{Content: "<h1>" + strings.Repeat("<em>word</em> ", 199) + "</h1>"}
		assert.Equal(t, plain.ReadTime(), marked.ReadTime())
	})
}
