package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/security"
	"github.com/foliodev/folio/internal/store"
)

// requiredProjectFields must be present and non-empty on create and update.
var requiredProjectFields = []string{
	"projectId", "title", "category", "year", "description",
	"color", "coverGradient", "overview", "client", "duration",
	"role", "tools", "challenge", "solution", "slug",
}

// ProjectHandler serves admin project management.
type ProjectHandler struct {
	store  store.Store
	logger *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(s store.Store, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{store: s, logger: logger}
}

// projectInput is the writable part of a project. Pointer fields default
// when omitted.
type projectInput struct {
	ProjectID       string                `json:"projectId"`
	Title           string                `json:"title"`
	Category        string                `json:"category"`
	Year            string                `json:"year"`
	Description     string                `json:"description"`
	Tags            []string              `json:"tags"`
	Color           string                `json:"color"`
	CoverImage      string                `json:"coverImage"`
	CoverGradient   string                `json:"coverGradient"`
	Overview        string                `json:"overview"`
	Client          string                `json:"client"`
	Duration        string                `json:"duration"`
	Role            string                `json:"role"`
	Tools           string                `json:"tools"`
	Challenge       string                `json:"challenge"`
	Solution        string                `json:"solution"`
	Images          []model.ProjectImage  `json:"images"`
	Results         []model.ProjectResult `json:"results"`
	ShowResults     *bool                 `json:"showResults"`
	Published       *bool                 `json:"published"`
	Featured        *bool                 `json:"featured"`
	Order           *int                  `json:"order"`
	Slug            string                `json:"slug"`
	MetaDescription string                `json:"metaDescription"`
	MetaKeywords    []string              `json:"metaKeywords"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// apply copies in onto p with every string sanitized.
func (in projectInput) apply(p *model.Project) {
	clean := security.SanitizeString
	p.ProjectID = clean(in.ProjectID)
	p.Title = clean(in.Title)
	p.Category = clean(in.Category)
	p.Year = clean(in.Year)
	p.Description = clean(in.Description)
	p.Tags = cleanList(in.Tags)
	p.Color = clean(in.Color)
	p.CoverImage = clean(in.CoverImage)
	p.CoverGradient = clean(in.CoverGradient)
	p.Overview = clean(in.Overview)
	p.Client = clean(in.Client)
	p.Duration = clean(in.Duration)
	p.Role = clean(in.Role)
	p.Tools = clean(in.Tools)
	p.Challenge = clean(in.Challenge)
	p.Solution = clean(in.Solution)
	p.Images = in.Images
	if p.Images == nil {
		p.Images = []model.ProjectImage{}
	}
	p.Results = in.Results
	if p.Results == nil {
		p.Results = []model.ProjectResult{}
	}
	p.ShowResults = boolOr(in.ShowResults, true)
	p.Published = boolOr(in.Published, false)
	p.Featured = boolOr(in.Featured, false)
	p.Order = 0
	if in.Order != nil {
		p.Order = *in.Order
	}
	p.Slug = clean(in.Slug)
	p.MetaDescription = clean(in.MetaDescription)
	p.MetaKeywords = cleanList(in.MetaKeywords)
}

func cleanList(s []string) []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if v = security.SanitizeString(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// missingFields lists required fields that are absent, null, false, zero or
// blank strings.
func missingFields(body map[string]any) []string {
	var missing []string
	for _, f := range requiredProjectFields {
		switch v := body[f].(type) {
		case nil:
			missing = append(missing, f)
		case string:
			if strings.TrimSpace(v) == "" {
				missing = append(missing, f)
			}
		case bool:
			if !v {
				missing = append(missing, f)
			}
		case float64:
			if v == 0 {
				missing = append(missing, f)
			}
		}
	}
	return missing
}

// decodeProject reads a project body. Operator keys are dropped, required
// fields are checked, then the body is decoded into projectInput. On
// failure it writes the response and returns false.
func decodeProject(w http.ResponseWriter, r *http.Request) (projectInput, bool) {
	var raw any
	if err := readJSON(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return projectInput{}, false
	}
	body, ok := security.StripOperators(raw).(map[string]any)
	if !ok {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return projectInput{}, false
	}
	if missing := missingFields(body); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return projectInput{}, false
	}

	buf, err := json.Marshal(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return projectInput{}, false
	}
	var in projectInput
	if err := json.Unmarshal(buf, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return projectInput{}, false
	}
	return in, true
}

// projectSummary is returned by create and update.
type projectSummary struct {
	ID        string    `json:"_id"`
	ProjectID string    `json:"projectId"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func summarize(p *model.Project) projectSummary {
	return projectSummary{ID: p.ID, ProjectID: p.ProjectID, Title: p.Title, Published: p.Published, UpdatedAt: p.UpdatedAt}
}

// ListProjects returns every project, drafts included.
// GET /api/admin/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context(), store.ProjectFilter{
		Category: queryFilter(r, "category"),
		Tag:      queryFilter(r, "tag"),
	})
	if err != nil {
		writeStoreError(w, h.logger, err, "Projects not found", "Failed to list projects")
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, model.ProjectList{
		Success:  true,
		Projects: projects,
		Count:    len(projects),
	})
}

// GetProject returns one project by store ID.
// GET /api/admin/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProjectByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, h.logger, err, "Project not found", "Failed to load project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "project": p})
}

// CreateProject adds a project.
// POST /api/admin/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeProject(w, r)
	if !ok {
		return
	}
	var p model.Project
	in.apply(&p)

	if err := h.store.CreateProject(r.Context(), &p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "Project ID or slug already exists")
			return
		}
		writeStoreError(w, h.logger, err, "Project not found", "Failed to create project")
		return
	}
	h.logger.Info("project created", "id", p.ID, "project_id", p.ProjectID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Project created",
		"project": summarize(&p),
	})
}

// UpdateProject replaces a project's writable fields.
// PUT /api/admin/projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	existing, err := h.store.GetProjectByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, h.logger, err, "Project not found", "Failed to load project")
		return
	}
	in, ok := decodeProject(w, r)
	if !ok {
		return
	}
	in.apply(existing)

	if err := h.store.UpdateProject(r.Context(), existing); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "Project ID or slug conflicts with another project")
			return
		}
		writeStoreError(w, h.logger, err, "Project not found", "Failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Project updated",
		"project": summarize(existing),
	})
}

// DeleteProject removes a project.
// DELETE /api/admin/projects/{id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteProject(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, err, "Project not found", "Failed to delete project")
		return
	}
	h.logger.Info("project deleted", "id", id)
	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "Project deleted"})
}
