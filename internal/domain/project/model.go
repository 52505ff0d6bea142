package project

import "time"

// Status represents the lifecycle stage of a restoration project
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusMinted    Status = "minted"

	// StatusAll is a filter value only; it is never stored on a project.
	StatusAll Status = "all"
)

// Valid reports whether s is a storable lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusApproved, StatusMinted:
		return true
	}
	return false
}

// EcosystemType is the kind of coastal habitat under restoration
type EcosystemType string

const (
	EcosystemMangrove  EcosystemType = "mangrove"
	EcosystemSeagrass  EcosystemType = "seagrass"
	EcosystemSaltMarsh EcosystemType = "salt-marsh"
	EcosystemWetland   EcosystemType = "wetland"
)

// Valid reports whether e is one of the known ecosystem types.
func (e EcosystemType) Valid() bool {
	switch e {
	case EcosystemMangrove, EcosystemSeagrass, EcosystemSaltMarsh, EcosystemWetland:
		return true
	}
	return false
}

// Project is one blue-carbon restoration site and its lifecycle trail
type Project struct {
	ID               string        `json:"id"`
	ProjectName      string        `json:"projectName"`
	Location         string        `json:"location"`
	Hectares         float64       `json:"hectares"`
	EcosystemType    EcosystemType `json:"ecosystemType"`
	Latitude         string        `json:"latitude"`
	Longitude        string        `json:"longitude"`
	Coordinates      string        `json:"coordinates"`
	Description      string        `json:"description"`
	Images           []string      `json:"images"`
	Status           Status        `json:"status"`
	SubmittedAt      time.Time     `json:"submittedAt"`
	SubmittedBy      string        `json:"submittedBy"`
	Organization     string        `json:"organization"`
	ApprovedAt       *time.Time    `json:"approvedAt"`
	ApprovedBy       *string       `json:"approvedBy"`
	MintedAt         *time.Time    `json:"mintedAt"`
	MintedBy         *string       `json:"mintedBy"`
	CreditsMinted    int64         `json:"creditsMinted"`
	EstimatedCredits int64         `json:"estimatedCredits"`
	SchemaVersion    string        `json:"schemaVersion"`
}

// Clone returns a deep copy that shares no memory with p.
func (p Project) Clone() Project {
	c := p
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	c.ApprovedAt = cloneTime(p.ApprovedAt)
	c.MintedAt = cloneTime(p.MintedAt)
	c.ApprovedBy = cloneString(p.ApprovedBy)
	c.MintedBy = cloneString(p.MintedBy)
	return c
}

// Stats is the dashboard aggregate over the whole collection
type Stats struct {
	Total            int     `json:"total"`
	Submitted        int     `json:"submitted"`
	Approved         int     `json:"approved"`
	Minted           int     `json:"minted"`
	TotalHectares    float64 `json:"totalHectares"`
	TotalCredits     int64   `json:"totalCredits"`
	EstimatedCredits int64   `json:"estimatedCredits"`
}

// ExportDocument is the transportable backup envelope
type ExportDocument struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Projects   []Project `json:"projects"`
}

// MigrationResult describes what EnsureMigrated did
type MigrationResult struct {
	Initialized bool   `json:"initialized,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Migrated    int    `json:"migrated"`
}

// Performed reports whether the stored collection was rewritten.
func (r MigrationResult) Performed() bool {
	return r.From != ""
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
