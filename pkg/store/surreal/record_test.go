package surreal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliosite/folio/pkg/models"
	"github.com/foliosite/folio/pkg/store"
)

func validRecord() postRecord {
	rid := surrealmodels.NewRecordID(models.BlogTable, "abc123")
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return postRecord{
		ID:        &rid,
		Title:     "Title",
		Content:   "<p>content</p>",
		Excerpt:   "excerpt",
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}
}

func TestToPost(t *testing.T) {
	post, err := validRecord().toPost()
	require.NoError(t, err)
	assert.Equal(t, models.PostID("abc123"), post.ID)
	assert.Equal(t, "Title", post.Title)
	assert.Nil(t, post.Image)
}

func TestToPostRejectsMalformed(t *testing.T) {
	t.Run("MissingID", func(t *testing.T) {
		r := validRecord()
		r.ID = nil
		_, err := r.toPost()
		assert.Error(t, err)
	})

	t.Run("MissingTimestamps", func(t *testing.T) {
		r := validRecord()
		r.CreatedAt = time.Time{}
		_, err := r.toPost()
		assert.Error(t, err)
	})

	t.Run("UpdatedBeforeCreated", func(t *testing.T) {
		r := validRecord()
		r.UpdatedAt = r.CreatedAt.Add(-time.Hour)
		_, err := r.toPost()
		assert.Error(t, err)
	})
}

func TestToPostCoercesBlankImage(t *testing.T) {
	r := validRecord()
	blank := "  "
	r.Image = &blank
	post, err := r.toPost()
	require.NoError(t, err)
	assert.Nil(t, post.Image, "stored blank image reads back as absence")
}

func TestSubscriptionRegistry(t *testing.T) {
	s := &Store{subs: make(map[int]func())}

	first := s.register(func() {})
	second := s.register(func() {})
	assert.Len(t, s.subs, 2)

	first()
	assert.Len(t, s.subs, 1, "a cancelled subscription leaves the registry")
	first()
	assert.Len(t, s.subs, 1, "unregister is idempotent")

	second()
	assert.Empty(t, s.subs, "churning subscribers do not accumulate entries")
}

func TestBuildUpdate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id := models.PostID("abc123")

	t.Run("TitleOnly", func(t *testing.T) {
		title := "New title"
		query, vars := buildUpdate(id, store.Patch{Title: &title}, now)
		assert.Equal(t, "UPDATE $id SET updatedAt = $updatedAt, title = $title", query)
		assert.Equal(t, "New title", vars["title"])
		assert.Equal(t, now, vars["updatedAt"])
		assert.NotContains(t, vars, "content")
	})

	t.Run("EmptyPatchStillTouchesUpdatedAt", func(t *testing.T) {
		query, vars := buildUpdate(id, store.Patch{}, now)
		assert.Equal(t, "UPDATE $id SET updatedAt = $updatedAt", query)
		assert.Len(t, vars, 2)
	})

	t.Run("BlankImageRemovesField", func(t *testing.T) {
		blank := ""
		query, vars := buildUpdate(id, store.Patch{Image: &blank}, now)
		assert.Contains(t, query, "image = NONE")
		assert.NotContains(t, vars, "image")
	})

	t.Run("ImageSet", func(t *testing.T) {
		img := "https://example.com/cover.png"
		query, vars := buildUpdate(id, store.Patch{Image: &img}, now)
		assert.Contains(t, query, "image = $image")
		assert.Equal(t, img, vars["image"])
	})
}
