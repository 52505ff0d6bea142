package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectSubmitted   ActivityType = "project_submitted"
	TypeStatusChanged      ActivityType = "status_changed"
	TypeCollectionSaved    ActivityType = "collection_saved"
	TypeCollectionImported ActivityType = "collection_imported"
	TypeCollectionCleared  ActivityType = "collection_cleared"
	TypeSchemaMigrated     ActivityType = "schema_migrated"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ProjectID    *string      `json:"project_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Actor        string       `json:"actor,omitempty"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
