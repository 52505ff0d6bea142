package mcp

import (
	"github.com/rpggio/bluecarbon/internal/domain/activity"
	"github.com/rpggio/bluecarbon/internal/domain/project"
)

type AddProjectParams struct {
	ProjectName   string   `json:"project_name,omitempty" jsonschema:"Display name of the restoration site"`
	Location      string   `json:"location,omitempty" jsonschema:"Free-text location"`
	Hectares      float64  `json:"hectares,omitempty" jsonschema:"Restored area in hectares; drives the credit estimate"`
	EcosystemType string   `json:"ecosystem_type,omitempty" jsonschema:"mangrove, seagrass, salt-marsh or wetland (default mangrove)"`
	Latitude      string   `json:"latitude,omitempty" jsonschema:"Latitude as entered"`
	Longitude     string   `json:"longitude,omitempty" jsonschema:"Longitude as entered"`
	Coordinates   string   `json:"coordinates,omitempty" jsonschema:"Display coordinates; derived from latitude/longitude when empty"`
	Description   string   `json:"description,omitempty" jsonschema:"Project description"`
	Images        []string `json:"images,omitempty" jsonschema:"Image references"`
	SubmittedBy   string   `json:"submitted_by,omitempty" jsonschema:"Submitter identity (default field-worker)"`
	Organization  string   `json:"organization,omitempty" jsonschema:"Submitting organization (default Local NGO)"`
}

type ListProjectsParams struct {
	Status      string `json:"status,omitempty" jsonschema:"Filter by status: submitted, approved, minted or all"`
	SubmittedBy string `json:"submitted_by,omitempty" jsonschema:"Filter by submitter identity"`
}

type GetProjectParams struct {
	ID string `json:"id" jsonschema:"Project ID"`
}

type UpdateProjectStatusParams struct {
	ID     string `json:"id" jsonschema:"Project ID"`
	Status string `json:"status" jsonschema:"New status: submitted, approved or minted"`
	Actor  string `json:"actor,omitempty" jsonschema:"Who performs the change (default system)"`
}

type EmptyParams struct{}

type ImportProjectsParams struct {
	Document string `json:"document" jsonschema:"Export document or JSON array of projects"`
}

type ClearProjectsParams struct {
	Confirm bool `json:"confirm" jsonschema:"Must be true; clearing is irreversible"`
}

type GetRecentActivityParams struct {
	ProjectID    string `json:"project_id,omitempty" jsonschema:"Only entries for this project"`
	ActivityType string `json:"activity_type,omitempty" jsonschema:"Only entries of this type"`
	Actor        string `json:"actor,omitempty" jsonschema:"Only entries by this actor"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Maximum number of entries (default 50)"`
	Offset       int    `json:"offset,omitempty" jsonschema:"Offset for pagination"`
}

type ProjectResponse struct {
	Project project.Project `json:"project"`
}

type ProjectListResponse struct {
	Projects []project.Project `json:"projects"`
	Count    int               `json:"count"`
}

type StatsResponse struct {
	Stats project.Stats `json:"stats"`
}

type ExportResponse struct {
	Document string `json:"document"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

type ActivityResponse struct {
	Entries []activity.ActivityEntry `json:"entries"`
}
