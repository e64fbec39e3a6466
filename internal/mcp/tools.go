package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/store"
)

// registerTools registers all Folio MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	srv.AddTool(
		mcp.NewTool("folio_get_profile",
			mcp.WithDescription(
				"Get the active portfolio profile: name, title, bio paragraphs and "+
					"design philosophy.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleGetProfile,
	)

	srv.AddTool(
		mcp.NewTool("folio_list_projects",
			mcp.WithDescription(
				"List portfolio projects ordered by their display order. Published "+
					"projects only unless include_drafts is true. Returns the card view "+
					"(id, title, category, year, description, tags, color) plus the "+
					"published and featured flags.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("category",
				mcp.Description("Only projects of this category"),
			),
			mcp.WithString("tag",
				mcp.Description("Only projects carrying this tag"),
			),
			mcp.WithBoolean("featured",
				mcp.Description("Only featured projects"),
			),
			mcp.WithBoolean("include_drafts",
				mcp.Description("Include unpublished projects"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of projects to return (default 50, max 200)"),
			),
		),
		s.handleListProjects,
	)

	srv.AddTool(
		mcp.NewTool("folio_get_project",
			mcp.WithDescription(
				"Get the full record of one project by its public projectId, including "+
					"overview, challenge, solution, gallery images and results. Drafts are "+
					"returned too.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("project_id",
				mcp.Required(),
				mcp.Description("Public project identifier (the projectId / URL slug)"),
			),
		),
		s.handleGetProject,
	)

	srv.AddTool(
		mcp.NewTool("folio_list_skills",
			mcp.WithDescription("List skill categories with their skills, in display order."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithBoolean("include_hidden",
				mcp.Description("Include categories hidden from the public site"),
			),
		),
		s.handleListSkills,
	)

	srv.AddTool(
		mcp.NewTool("folio_get_contact",
			mcp.WithDescription("Get the contact section: intro text and links in display order."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleGetContact,
	)
}

// projectListItem is a project card with its publication state.
type projectListItem struct {
	model.ProjectCard
	Published bool `json:"published"`
	Featured  bool `json:"featured"`
}

func (s *MCPServer) handleGetProfile(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	p, err := s.store.GetActiveProfile(ctx)
	if err != nil {
		return storeError(err, "Profile", "No active profile has been set up yet.")
	}
	return successJSON(p)
}

func (s *MCPServer) handleListProjects(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	f := store.ProjectFilter{
		PublishedOnly: !flagArg(request, "include_drafts"),
		FeaturedOnly:  flagArg(request, "featured"),
		Category:      filterArg(request, "category"),
		Tag:           filterArg(request, "tag"),
		Limit:         limitArg(request),
	}

	projects, err := s.store.ListProjects(ctx, f)
	if err != nil {
		return toolError("Failed to list projects: %v", err)
	}

	items := make([]projectListItem, 0, len(projects))
	for i := range projects {
		items = append(items, projectListItem{
			ProjectCard: projects[i].Card(),
			Published:   projects[i].Published,
			Featured:    projects[i].Featured,
		})
	}
	return successJSON(items)
}

func (s *MCPServer) handleGetProject(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	projectID, err := projectIDArg(request)
	if err != nil {
		return toolError("%v. Use folio_list_projects to find project ids.", err)
	}

	p, err := s.store.GetProject(ctx, projectID, false)
	if err != nil {
		return storeError(err, fmt.Sprintf("Project %q", projectID), "Use folio_list_projects to find project ids.")
	}
	return successJSON(p)
}

func (s *MCPServer) handleListSkills(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	cats, err := s.store.ListSkillCategories(ctx, !flagArg(request, "include_hidden"))
	if err != nil {
		return toolError("Failed to list skills: %v", err)
	}
	return successJSON(cats)
}

func (s *MCPServer) handleGetContact(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	c, err := s.store.GetActiveContact(ctx)
	if err != nil {
		return storeError(err, "Contact section", "No active contact section has been set up yet.")
	}
	return successJSON(c.Public())
}
