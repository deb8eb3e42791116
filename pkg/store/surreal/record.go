package surreal

import (
	"fmt"
	"strings"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliosite/folio/pkg/models"
	"github.com/foliosite/folio/pkg/store"
)

// postRecord is the wire shape of a document in the blogs table. The store
// never trusts field presence: toPost validates the shape before a Post is
// constructed.
type postRecord struct {
	ID        *surrealmodels.RecordID `json:"id,omitempty"`
	Title     string                  `json:"title"`
	Content   string                  `json:"content"`
	Excerpt   string                  `json:"excerpt"`
	Image     *string                 `json:"image,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// toPost converts a stored document into the domain entity, rejecting shapes
// a well-formed document can never have.
func (r postRecord) toPost() (models.Post, error) {
	if r.ID == nil {
		return models.Post{}, fmt.Errorf("document has no record ID")
	}
	if r.CreatedAt.IsZero() || r.UpdatedAt.IsZero() {
		return models.Post{}, fmt.Errorf("document %v has no timestamps", r.ID)
	}
	if r.UpdatedAt.Before(r.CreatedAt) {
		return models.Post{}, fmt.Errorf("document %v updated before created", r.ID)
	}

	post := models.Post{
		ID:        models.PostID(fmt.Sprint(r.ID.ID)),
		Title:     r.Title,
		Content:   r.Content,
		Excerpt:   r.Excerpt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	// Coerce an empty-string image, however it got stored, back to absence.
	if r.Image != nil && strings.TrimSpace(*r.Image) != "" {
		img := *r.Image
		post.Image = &img
	}
	return post, nil
}

// buildUpdate assembles the parameterized UPDATE statement for a patch. Only
// fields present in the patch appear in the SET clause; updatedAt is always
// refreshed. An explicitly blank image becomes `image = NONE`, which removes
// the field from the document.
func buildUpdate(id models.PostID, patch store.Patch, now time.Time) (string, map[string]any) {
	sets := []string{"updatedAt = $updatedAt"}
	vars := map[string]any{
		"id":        id.RecordID(),
		"updatedAt": now,
	}

	if patch.Title != nil {
		sets = append(sets, "title = $title")
		vars["title"] = *patch.Title
	}
	if patch.Content != nil {
		sets = append(sets, "content = $content")
		vars["content"] = *patch.Content
	}
	if patch.Excerpt != nil {
		sets = append(sets, "excerpt = $excerpt")
		vars["excerpt"] = *patch.Excerpt
	}
	if patch.Image != nil {
		if img := strings.TrimSpace(*patch.Image); img != "" {
			sets = append(sets, "image = $image")
			vars["image"] = img
		} else {
			sets = append(sets, "image = NONE")
		}
	}

	return "UPDATE $id SET " + strings.Join(sets, ", "), vars
}
