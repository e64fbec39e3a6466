package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/store"
)

const maxPublicLimit = 100

// ContentHandler serves the public, read-only portfolio API.
type ContentHandler struct {
	store  store.Store
	logger *slog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(s store.Store, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{store: s, logger: logger}
}

// Profile returns the active profile.
// GET /api/profile
func (h *ContentHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetActiveProfile(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Profile not found", "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListProjects returns published project cards.
// GET /api/projects?category=&tag=&featured=true&limit=
func (h *ContentHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	f := store.ProjectFilter{
		PublishedOnly: true,
		FeaturedOnly:  queryFlag(r, "featured"),
		Category:      queryFilter(r, "category"),
		Tag:           queryFilter(r, "tag"),
		Limit:         queryLimit(r, maxPublicLimit),
	}

	projects, err := h.store.ListProjects(r.Context(), f)
	if err != nil {
		writeStoreError(w, h.logger, err, "Projects not found", "Failed to list projects")
		return
	}
	cards := make([]model.ProjectCard, 0, len(projects))
	for i := range projects {
		cards = append(cards, projects[i].Card())
	}
	writeJSON(w, http.StatusOK, cards)
}

// GetProject returns the detail page of a published project.
// GET /api/projects/{id}
func (h *ContentHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"), true)
	if err != nil {
		writeStoreError(w, h.logger, err, "Project not found", "Failed to load project")
		return
	}
	writeJSON(w, http.StatusOK, p.Detail())
}

// Skills returns the visible skill categories.
// GET /api/skills
func (h *ContentHandler) Skills(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.ListSkillCategories(r.Context(), true)
	if err != nil {
		writeStoreError(w, h.logger, err, "Skills not found", "Failed to list skills")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Contact returns the active contact section.
// GET /api/contact
func (h *ContentHandler) Contact(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetActiveContact(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Contact information not found", "Failed to load contact information")
		return
	}
	writeJSON(w, http.StatusOK, c.Public())
}
