package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/foliodev/folio/internal/store"
)

const (
	projectsURI        = "folio://projects"
	projectURIPrefix   = "folio://project/"
	projectURITemplate = projectURIPrefix + "{projectId}"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// folio://projects — published project cards
	// -------------------------------------------------------------------
	srv.AddResource(
		mcp.NewResource(
			projectsURI,
			"Published Projects",
			mcp.WithResourceDescription(
				"Cards of every published project in display order, as shown on the "+
					"public portfolio.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleProjectsResource,
	)

	// -------------------------------------------------------------------
	// folio://project/{projectId} — public detail page of a project
	// -------------------------------------------------------------------
	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			projectURITemplate,
			"Project Detail",
			mcp.WithTemplateDescription(
				"Public detail view of a published project, including gallery images "+
					"and results.",
			),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleProjectResource,
	)
}

func (s *MCPServer) handleProjectsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	projects, err := s.store.ListProjects(ctx, store.ProjectFilter{PublishedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	cards := make([]interface{}, 0, len(projects))
	for i := range projects {
		cards = append(cards, projects[i].Card())
	}
	return jsonResource(projectsURI, cards)
}

func (s *MCPServer) handleProjectResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	uri := request.Params.URI
	projectID := strings.TrimPrefix(uri, projectURIPrefix)
	if projectID == "" || projectID == uri {
		return nil, fmt.Errorf("invalid project URI %q: expected %s", uri, projectURITemplate)
	}

	p, err := s.store.GetProject(ctx, projectID, true)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", projectID, err)
	}
	return jsonResource(uri, p.Detail())
}
