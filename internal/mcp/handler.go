package mcp

import (
	"context"
	"strings"

	"github.com/rpggio/bluecarbon/internal/domain/activity"
	"github.com/rpggio/bluecarbon/internal/domain/project"
)

// ProjectService defines project store operations needed by MCP.
type ProjectService interface {
	AddProject(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	GetProjects(ctx context.Context) []project.Project
	GetProjectsByStatus(ctx context.Context, status project.Status) []project.Project
	GetProjectsByUser(ctx context.Context, submittedBy string) []project.Project
	GetProjectByID(ctx context.Context, id string) (*project.Project, error)
	UpdateProjectStatus(ctx context.Context, id string, status project.Status, actor string) (*project.Project, error)
	GetProjectStats(ctx context.Context) project.Stats
	ExportProjects(ctx context.Context) ([]byte, error)
	ImportProjects(ctx context.Context, document []byte) (int, error)
	ClearProjects(ctx context.Context) error
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Handler adapts tool parameters to store calls. Every error it returns is
// already mapped to an APIError where a code exists.
type Handler struct {
	projects ProjectService
	activity ActivityService
}

// NewHandler creates a new MCP handler.
func NewHandler(projects ProjectService, activitySvc ActivityService) *Handler {
	return &Handler{
		projects: projects,
		activity: activitySvc,
	}
}

func (h *Handler) AddProject(ctx context.Context, params AddProjectParams) (ProjectResponse, error) {
	proj, err := h.projects.AddProject(ctx, project.CreateRequest{
		ProjectName:   params.ProjectName,
		Location:      params.Location,
		Hectares:      params.Hectares,
		EcosystemType: project.EcosystemType(params.EcosystemType),
		Latitude:      params.Latitude,
		Longitude:     params.Longitude,
		Coordinates:   params.Coordinates,
		Description:   params.Description,
		Images:        params.Images,
		SubmittedBy:   params.SubmittedBy,
		Organization:  params.Organization,
	})
	if err != nil {
		return ProjectResponse{}, mapError(err)
	}
	return ProjectResponse{Project: *proj}, nil
}

// ListProjects filters by status and submitter. Both filters are optional.
func (h *Handler) ListProjects(ctx context.Context, params ListProjectsParams) (ProjectListResponse, error) {
	status := project.Status(strings.TrimSpace(params.Status))
	if status == "" {
		status = project.StatusAll
	}
	if status != project.StatusAll && !status.Valid() {
		return ProjectListResponse{}, mapError(project.ErrInvalidStatus)
	}

	var projects []project.Project
	switch {
	case status == project.StatusAll && params.SubmittedBy != "":
		projects = h.projects.GetProjectsByUser(ctx, params.SubmittedBy)
	case params.SubmittedBy != "":
		for _, p := range h.projects.GetProjectsByStatus(ctx, status) {
			if p.SubmittedBy == params.SubmittedBy {
				projects = append(projects, p)
			}
		}
	default:
		projects = h.projects.GetProjectsByStatus(ctx, status)
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return ProjectListResponse{Projects: projects, Count: len(projects)}, nil
}

func (h *Handler) GetProject(ctx context.Context, params GetProjectParams) (ProjectResponse, error) {
	if strings.TrimSpace(params.ID) == "" {
		return ProjectResponse{}, invalidInput("id is required")
	}
	proj, err := h.projects.GetProjectByID(ctx, params.ID)
	if err != nil {
		return ProjectResponse{}, mapError(err)
	}
	return ProjectResponse{Project: *proj}, nil
}

func (h *Handler) UpdateProjectStatus(ctx context.Context, params UpdateProjectStatusParams) (ProjectResponse, error) {
	if strings.TrimSpace(params.ID) == "" {
		return ProjectResponse{}, invalidInput("id is required")
	}
	proj, err := h.projects.UpdateProjectStatus(ctx, params.ID, project.Status(params.Status), params.Actor)
	if err != nil {
		return ProjectResponse{}, mapError(err)
	}
	return ProjectResponse{Project: *proj}, nil
}

func (h *Handler) GetProjectStats(ctx context.Context) StatsResponse {
	return StatsResponse{Stats: h.projects.GetProjectStats(ctx)}
}

func (h *Handler) ExportProjects(ctx context.Context) (ExportResponse, error) {
	doc, err := h.projects.ExportProjects(ctx)
	if err != nil {
		return ExportResponse{}, mapError(err)
	}
	return ExportResponse{Document: string(doc)}, nil
}

func (h *Handler) ImportProjects(ctx context.Context, params ImportProjectsParams) (ImportResponse, error) {
	n, err := h.projects.ImportProjects(ctx, []byte(params.Document))
	if err != nil {
		return ImportResponse{}, mapError(err)
	}
	return ImportResponse{Imported: n}, nil
}

func (h *Handler) ClearProjects(ctx context.Context, params ClearProjectsParams) (ClearResponse, error) {
	if !params.Confirm {
		return ClearResponse{}, invalidInput("confirm must be true to clear all projects")
	}
	if err := h.projects.ClearProjects(ctx); err != nil {
		return ClearResponse{}, mapError(err)
	}
	return ClearResponse{Cleared: true}, nil
}

func (h *Handler) GetRecentActivity(ctx context.Context, params GetRecentActivityParams) (ActivityResponse, error) {
	if h.activity == nil {
		return ActivityResponse{Entries: []activity.ActivityEntry{}}, nil
	}
	if params.Limit < 0 || params.Offset < 0 {
		return ActivityResponse{}, invalidInput("limit and offset must not be negative")
	}
	opts := activity.ListActivityOptions{
		Actor:  params.Actor,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if params.ProjectID != "" {
		opts.ProjectID = &params.ProjectID
	}
	if params.ActivityType != "" {
		t := activity.ActivityType(params.ActivityType)
		opts.ActivityType = &t
	}
	entries, err := h.activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return ActivityResponse{}, mapError(err)
	}
	if entries == nil {
		entries = []activity.ActivityEntry{}
	}
	return ActivityResponse{Entries: entries}, nil
}
