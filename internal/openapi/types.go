package openapi

import (
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/foliodev/folio/internal/model"
)

// loginRequest documents the login body. The handler decodes it untyped.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	User      model.AccountView `json:"user"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

type uploadResult struct {
	URL          string `json:"url"`
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType"`
}

type uploadResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    uploadResult `json:"data"`
}

type projectSummary struct {
	ID        string    `json:"_id"`
	ProjectID string    `json:"projectId"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type projectWriteResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Project projectSummary `json:"project"`
}

type deleteImageRequest struct {
	URL string `json:"url"`
}

// componentTypes are published under #/components/schemas by name.
var componentTypes = []struct {
	Name  string
	Value any
}{
	{"MessageResponse", model.MessageResponse{}},
	{"Profile", model.Profile{}},
	{"ProjectCard", model.ProjectCard{}},
	{"ProjectDetail", model.ProjectDetail{}},
	{"Project", model.Project{}},
	{"ProjectList", model.ProjectList{}},
	{"ProjectWriteResponse", projectWriteResponse{}},
	{"SkillCategory", model.SkillCategory{}},
	{"Contact", model.PublicContact{}},
	{"Account", model.AccountView{}},
	{"LoginRequest", loginRequest{}},
	{"LoginResponse", loginResponse{}},
	{"UploadResponse", uploadResponse{}},
	{"DeleteImageRequest", deleteImageRequest{}},
}

// schemaFor reflects v into an inline schema using its json tags.
func schemaFor(v any) (*openapi3.SchemaRef, error) {
	return openapi3gen.NewSchemaRefForValue(v, nil)
}

// ref returns a reference to a named component schema.
func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

// arrayOf wraps a schema reference in an array schema.
func arrayOf(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: items,
		},
	}
}
