package folio

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/foliosite/folio/pkg/models"
	"github.com/foliosite/folio/pkg/sanitize"
	"github.com/foliosite/folio/pkg/store"
)

// postView is the wire shape of a post. Content is sanitized at render time,
// never trusted from storage, and readTime is derived rather than stored.
type postView struct {
	ID        models.PostID `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Excerpt   string        `json:"excerpt"`
	Image     *string       `json:"image,omitempty"`
	ReadTime  int           `json:"readTime"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func renderPost(p models.Post) postView {
	return postView{
		ID:        p.ID,
		Title:     p.Title,
		Content:   sanitize.HTML(p.Content),
		Excerpt:   p.Excerpt,
		Image:     p.Image,
		ReadTime:  p.ReadTime(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func renderPosts(posts []models.Post) []postView {
	views := make([]postView, len(posts))
	for i, p := range posts {
		views[i] = renderPost(p)
	}
	return views
}

func (a *App) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.store.ListPosts(r.Context())
	if err != nil {
		a.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, renderPosts(posts))
}

func (a *App) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePostID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := a.store.GetPost(r.Context(), id)
	if err != nil {
		a.respondStoreError(w, err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}
	respondJSON(w, http.StatusOK, renderPost(*post))
}

func (a *App) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var draft store.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := draft.Validate(); err != nil {
		a.respondStoreError(w, err)
		return
	}
	draft.Content = sanitize.HTML(draft.Content)

	id, err := a.store.CreatePost(r.Context(), draft)
	if err != nil {
		a.respondStoreError(w, err)
		return
	}

	post, err := a.store.GetPost(r.Context(), id)
	if err != nil || post == nil {
		// The write landed; return at least the identifier.
		respondJSON(w, http.StatusCreated, map[string]models.PostID{"id": id})
		return
	}
	respondJSON(w, http.StatusCreated, renderPost(*post))
}

func (a *App) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePostID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var patch store.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if patch.Content != nil {
		clean := sanitize.HTML(*patch.Content)
		patch.Content = &clean
	}

	if err := a.store.UpdatePost(r.Context(), id, patch); err != nil {
		a.respondStoreError(w, err)
		return
	}

	post, err := a.store.GetPost(r.Context(), id)
	if err != nil {
		a.respondStoreError(w, err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}
	respondJSON(w, http.StatusOK, renderPost(*post))
}

func (a *App) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePostID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	if err := a.store.DeletePost(r.Context(), id); err != nil {
		a.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// handleUploadImage stores a cover image and returns its public URL. The
// request is multipart/form-data with the file under "image".
func (a *App) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if a.images == nil {
		respondError(w, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}

	const maxImageSize = 10 << 20
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	url, err := a.images.UploadImage(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		a.log.Error().Err(err).Msg("image upload failed")
		respondError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// respondStoreError maps the store's error taxonomy onto HTTP statuses. The
// absence of a post is the only client-correctable write failure; everything
// else is a server-side fault and is logged.
func (a *App) respondStoreError(w http.ResponseWriter, err error) {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		respondError(w, http.StatusBadRequest, verr.Error())
		return
	}
	if errors.Is(err, store.ErrNotExist) {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}
	a.log.Error().Err(err).Msg("store operation failed")
	var rerr *store.ReadError
	if errors.As(err, &rerr) {
		respondError(w, http.StatusBadGateway, "Failed to read posts")
		return
	}
	respondError(w, http.StatusInternalServerError, "Failed to write post")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
