// Package openapi builds the OpenAPI description of the Folio HTTP API.
package openapi

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// Version is the API version reported in the document.
const Version = "1.0.0"

// Generate builds the OpenAPI 3.1 document. baseURL becomes the single
// server entry and may be empty.
func Generate(baseURL string) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Folio API",
			Description: "Public portfolio content and the password-protected admin API.",
			Version:     Version,
		},
	}
	if baseURL != "" {
		doc.Servers = openapi3.Servers{{URL: baseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["cookieAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
	}
	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
							"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
							"context": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
						},
					},
				},
			},
		},
	}
	for _, c := range componentTypes {
		s, err := schemaFor(c.Value)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", c.Name, err)
		}
		doc.Components.Schemas[c.Name] = s
	}

	doc.Paths = openapi3.NewPaths()
	addSystemPaths(doc)
	addPublicPaths(doc)
	addAuthPaths(doc)
	addProjectPaths(doc)
	addUploadPaths(doc)
	return doc, nil
}

// ─── Paths ──────────────────────────────────────────────────────────────────

func addSystemPaths(doc *openapi3.T) {
	status := &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: operation("system", "healthz", "Liveness probe", newResponses(http.StatusOK, "Process is running", status)),
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: operation("system", "readyz", "Readiness probe (store ping)",
			newResponses(http.StatusOK, "Store is reachable", status, http.StatusServiceUnavailable)),
	})
}

func addPublicPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/profile", &openapi3.PathItem{
		Get: operation("public", "get_profile", "Active profile",
			newResponses(http.StatusOK, "Profile", ref("Profile"), http.StatusNotFound)),
	})

	list := operation("public", "list_projects", "Published project cards",
		newResponses(http.StatusOK, "Project cards", arrayOf(ref("ProjectCard"))))
	list.Parameters = openapi3.Parameters{
		queryParam("category", "Only projects of this category.", openapi3.NewStringSchema()),
		queryParam("tag", "Only projects carrying this tag.", openapi3.NewStringSchema()),
		queryParam("featured", "\"true\" to list featured projects only.", openapi3.NewBoolSchema()),
		queryParam("limit", "Maximum number of cards to return.", openapi3.NewInt32Schema()),
	}
	doc.Paths.Set("/api/projects", &openapi3.PathItem{Get: list})

	get := operation("public", "get_project", "Published project detail",
		newResponses(http.StatusOK, "Project detail", ref("ProjectDetail"), http.StatusNotFound))
	get.Parameters = openapi3.Parameters{pathParam("id", "Public project identifier (projectId).")}
	doc.Paths.Set("/api/projects/{id}", &openapi3.PathItem{Get: get})

	doc.Paths.Set("/api/skills", &openapi3.PathItem{
		Get: operation("public", "list_skills", "Visible skill categories",
			newResponses(http.StatusOK, "Skill categories", arrayOf(ref("SkillCategory")))),
	})
	doc.Paths.Set("/api/contact", &openapi3.PathItem{
		Get: operation("public", "get_contact", "Contact section",
			newResponses(http.StatusOK, "Contact", ref("Contact"), http.StatusNotFound)),
	})
}

func addAuthPaths(doc *openapi3.T) {
	login := operation("auth", "login", "Log in and receive the session cookie",
		newResponses(http.StatusOK, "Logged in", ref("LoginResponse"),
			http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests))
	login.RequestBody = jsonBody("Credentials", ref("LoginRequest"))
	login.Security = &openapi3.SecurityRequirements{}
	doc.Paths.Set("/api/admin/auth/login", &openapi3.PathItem{Post: login})

	logout := operation("auth", "logout", "Clear the session cookie",
		newResponses(http.StatusOK, "Logged out", ref("MessageResponse")))
	logout.Security = &openapi3.SecurityRequirements{}
	doc.Paths.Set("/api/admin/auth/logout", &openapi3.PathItem{Post: logout})

	doc.Paths.Set("/api/admin/auth/me", &openapi3.PathItem{
		Get: secured(operation("auth", "me", "Current account",
			newResponses(http.StatusOK, "Account", ref("Account"), http.StatusUnauthorized, http.StatusForbidden))),
	})
}

func addProjectPaths(doc *openapi3.T) {
	listSchema := ref("ProjectList")
	create := secured(operation("projects", "create_project", "Create a project",
		newResponses(http.StatusCreated, "Created", ref("ProjectWriteResponse"), http.StatusBadRequest, http.StatusUnauthorized)))
	create.RequestBody = jsonBody("Project fields", ref("Project"))
	doc.Paths.Set("/api/admin/projects", &openapi3.PathItem{
		Get: secured(operation("projects", "list_all_projects", "All projects including drafts",
			newResponses(http.StatusOK, "Projects", listSchema, http.StatusUnauthorized))),
		Post: create,
	})

	idParam := openapi3.Parameters{pathParam("id", "Store identifier (_id).")}
	get := secured(operation("projects", "get_project_admin", "Project by store id",
		newResponses(http.StatusOK, "Project", ref("Project"), http.StatusNotFound, http.StatusUnauthorized)))
	get.Parameters = idParam
	update := secured(operation("projects", "update_project", "Replace a project",
		newResponses(http.StatusOK, "Updated", ref("ProjectWriteResponse"), http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized)))
	update.Parameters = idParam
	update.RequestBody = jsonBody("Project fields", ref("Project"))
	del := secured(operation("projects", "delete_project", "Delete a project",
		newResponses(http.StatusOK, "Deleted", ref("MessageResponse"), http.StatusNotFound, http.StatusUnauthorized)))
	del.Parameters = idParam
	doc.Paths.Set("/api/admin/projects/{id}", &openapi3.PathItem{Get: get, Put: update, Delete: del})
}

func addUploadPaths(doc *openapi3.T) {
	form := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"file":   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "binary"}},
				"folder": &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithPattern(`^[a-z0-9_-]+(/[a-z0-9_-]+)*$`)},
			},
			Required: []string{"file"},
		},
	}
	upload := secured(operation("upload", "upload_image", "Upload an image (max 10MB)",
		newResponses(http.StatusOK, "Uploaded", ref("UploadResponse"),
			http.StatusBadRequest, http.StatusUnauthorized, http.StatusServiceUnavailable)))
	upload.RequestBody = &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content: openapi3.Content{
				"multipart/form-data": &openapi3.MediaType{Schema: form},
			},
		},
	}
	doc.Paths.Set("/api/admin/upload/image", &openapi3.PathItem{Post: upload})

	del := secured(operation("upload", "delete_image", "Delete an uploaded image",
		newResponses(http.StatusOK, "Deleted", ref("MessageResponse"),
			http.StatusBadRequest, http.StatusUnauthorized, http.StatusServiceUnavailable)))
	del.RequestBody = jsonBody("Image URL", ref("DeleteImageRequest"))
	doc.Paths.Set("/api/admin/upload/delete", &openapi3.PathItem{Post: del})

	doc.Paths.Set("/api/admin/upload/fix-policy", &openapi3.PathItem{
		Post: secured(operation("upload", "fix_policy", "Re-apply the public-read bucket policy",
			newResponses(http.StatusOK, "Policy applied", ref("MessageResponse"),
				http.StatusUnauthorized, http.StatusServiceUnavailable))),
	})
}

// ─── Builders ───────────────────────────────────────────────────────────────

func operation(tag, id, summary string, responses *openapi3.Responses) *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     summary,
		OperationID: id,
		Responses:   responses,
	}
}

// secured marks op as requiring a session.
func secured(op *openapi3.Operation) *openapi3.Operation {
	op.Security = &openapi3.SecurityRequirements{
		{"cookieAuth": {}},
		{"bearerAuth": {}},
	}
	return op
}

func jsonBody(description string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: description,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

func queryParam(name, description string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewQueryParameter(name).WithDescription(description).WithSchema(schema),
	}
}

func pathParam(name, description string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter(name).WithDescription(description).WithSchema(openapi3.NewStringSchema()),
	}
}

// newResponses builds a Responses map with the success response and an
// ErrorResponse entry for each listed error status. 500 is always present.
func newResponses(status int, description string, schema *openapi3.SchemaRef, errorStatuses ...int) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(fmt.Sprint(status), &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := ref("ErrorResponse")
	for _, code := range append(errorStatuses, http.StatusInternalServerError) {
		desc := http.StatusText(code)
		responses.Set(fmt.Sprint(code), &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}
