package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools exposes the project store as MCP tools. Results are returned
// as structured content; the SDK renders them as JSON text as well.
func registerTools(server *sdkmcp.Server, h *Handler) {
	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_project",
		Description: "Submit a new restoration project. It starts as submitted with estimated credits of 150 per hectare.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params AddProjectParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
		out, err := h.AddProject(ctx, params)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List projects in submission order, optionally filtered by status and submitter",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params ListProjectsParams) (*sdkmcp.CallToolResult, ProjectListResponse, error) {
		out, err := h.ListProjects(ctx, params)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get a single project by id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params GetProjectParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
		out, err := h.GetProject(ctx, params)
		return nil, out, err
	})

	// Lifecycle
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_project_status",
		Description: "Set a project's status. Approval stamps approvedAt/approvedBy; minting stamps mintedAt/mintedBy and issues the estimated credits.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params UpdateProjectStatusParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
		out, err := h.UpdateProjectStatus(ctx, params)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project_stats",
		Description: "Aggregate counts per status, total hectares, minted and estimated credits",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, StatsResponse, error) {
		return nil, h.GetProjectStats(ctx), nil
	})

	// Backup
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "export_projects",
		Description: "Export every project as a versioned JSON document",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, ExportResponse, error) {
		out, err := h.ExportProjects(ctx)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "import_projects",
		Description: "Replace all projects with the contents of an export document or a JSON array. Nothing changes if the document is malformed.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params ImportProjectsParams) (*sdkmcp.CallToolResult, ImportResponse, error) {
		out, err := h.ImportProjects(ctx, params)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "clear_projects",
		Description: "Irreversibly delete every project and the schema marker. Requires confirm=true.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params ClearProjectsParams) (*sdkmcp.CallToolResult, ClearResponse, error) {
		out, err := h.ClearProjects(ctx, params)
		return nil, out, err
	})

	// Activity
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent store mutations, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params GetRecentActivityParams) (*sdkmcp.CallToolResult, ActivityResponse, error) {
		out, err := h.GetRecentActivity(ctx, params)
		return nil, out, err
	})
}
