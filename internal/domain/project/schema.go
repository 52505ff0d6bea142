package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// SchemaVersion tags every persisted record and the collection marker.
	SchemaVersion = "1.0.0"

	// CreditsPerHectare is the flat sequestration estimate used at creation.
	CreditsPerHectare = 150

	DefaultSubmitter    = "field-worker"
	DefaultOrganization = "Local NGO"
)

// EstimateCredits returns floor(hectares × CreditsPerHectare), or 0 for
// non-positive or non-finite areas.
func EstimateCredits(hectares float64) int64 {
	if hectares <= 0 || math.IsNaN(hectares) || math.IsInf(hectares, 0) {
		return 0
	}
	return int64(math.Floor(hectares * CreditsPerHectare))
}

// canonicalize returns a copy of p conforming to the current schema. Missing
// fields take their defaults and only minted records keep creditsMinted.
func canonicalize(p Project, now time.Time, newID func() string) Project {
	c := p.Clone()
	if strings.TrimSpace(c.ID) == "" {
		c.ID = newID()
	}
	if math.IsNaN(c.Hectares) || math.IsInf(c.Hectares, 0) {
		c.Hectares = 0
	}
	if c.EcosystemType == "" {
		c.EcosystemType = EcosystemMangrove
	}
	if c.Coordinates == "" && c.Latitude != "" && c.Longitude != "" {
		c.Coordinates = c.Latitude + ", " + c.Longitude
	}
	if c.Images == nil {
		c.Images = []string{}
	}
	if c.Status == "" {
		c.Status = StatusSubmitted
	}
	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = now
	}
	if c.SubmittedBy == "" {
		c.SubmittedBy = DefaultSubmitter
	}
	if c.Organization == "" {
		c.Organization = DefaultOrganization
	}
	if c.ApprovedBy != nil && *c.ApprovedBy == "" {
		c.ApprovedBy = nil
	}
	if c.MintedBy != nil && *c.MintedBy == "" {
		c.MintedBy = nil
	}
	if c.EstimatedCredits == 0 {
		c.EstimatedCredits = EstimateCredits(c.Hectares)
	}
	if c.Status != StatusMinted {
		c.CreditsMinted = 0
	}
	c.SchemaVersion = SchemaVersion
	return c
}

// storedProject is the lenient wire shape of a record. Older or hand-edited
// blobs carry numbers as strings, ids as numbers, and nulls everywhere.
type storedProject struct {
	ID               looseString       `json:"id"`
	ProjectName      looseString       `json:"projectName"`
	Location         looseString       `json:"location"`
	Hectares         looseNumber       `json:"hectares"`
	EcosystemType    looseString       `json:"ecosystemType"`
	Latitude         looseString       `json:"latitude"`
	Longitude        looseString       `json:"longitude"`
	Coordinates      looseString       `json:"coordinates"`
	Description      looseString       `json:"description"`
	Images           []json.RawMessage `json:"images"`
	Status           looseString       `json:"status"`
	SubmittedAt      looseTime         `json:"submittedAt"`
	SubmittedBy      looseString       `json:"submittedBy"`
	Organization     looseString       `json:"organization"`
	ApprovedAt       looseTime         `json:"approvedAt"`
	ApprovedBy       looseString       `json:"approvedBy"`
	MintedAt         looseTime         `json:"mintedAt"`
	MintedBy         looseString       `json:"mintedBy"`
	CreditsMinted    looseNumber       `json:"creditsMinted"`
	EstimatedCredits looseNumber       `json:"estimatedCredits"`
	SchemaVersion    looseString       `json:"schemaVersion"`
}

func (sp storedProject) project() Project {
	p := Project{
		ID:               string(sp.ID),
		ProjectName:      string(sp.ProjectName),
		Location:         string(sp.Location),
		Hectares:         float64(sp.Hectares),
		EcosystemType:    EcosystemType(sp.EcosystemType),
		Latitude:         string(sp.Latitude),
		Longitude:        string(sp.Longitude),
		Coordinates:      string(sp.Coordinates),
		Description:      string(sp.Description),
		Status:           Status(sp.Status),
		SubmittedBy:      string(sp.SubmittedBy),
		Organization:     string(sp.Organization),
		ApprovedAt:       sp.ApprovedAt.t,
		ApprovedBy:       optionalString(sp.ApprovedBy),
		MintedAt:         sp.MintedAt.t,
		MintedBy:         optionalString(sp.MintedBy),
		CreditsMinted:    int64(math.Floor(float64(sp.CreditsMinted))),
		EstimatedCredits: int64(math.Floor(float64(sp.EstimatedCredits))),
		SchemaVersion:    string(sp.SchemaVersion),
	}
	if sp.SubmittedAt.t != nil {
		p.SubmittedAt = *sp.SubmittedAt.t
	}
	if sp.Images != nil {
		p.Images = make([]string, 0, len(sp.Images))
		for _, raw := range sp.Images {
			if ref := imageRef(raw); ref != "" {
				p.Images = append(p.Images, ref)
			}
		}
	}
	return p
}

// decodeCollection parses a JSON array of records leniently.
func decodeCollection(data []byte) ([]Project, error) {
	var stored []storedProject
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	projects := make([]Project, 0, len(stored))
	for _, sp := range stored {
		projects = append(projects, sp.project())
	}
	return projects, nil
}

func optionalString(s looseString) *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}

// imageRef reduces an image entry to a reference string. Upload widgets
// persisted file objects, so objects fall back to their name-like fields.
func imageRef(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"url", "path", "name", "src"} {
			if v, ok := obj[key].(string); ok && v != "" {
				return v
			}
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// looseString accepts strings, numbers and booleans. null decodes to "".
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("expected string, got %s", data[:1])
	default:
		*s = looseString(data)
	}
	return nil
}

// looseNumber accepts numbers and numeric strings. Anything else decodes to 0.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var text string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	} else {
		text = string(data)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = 0
		return nil
	}
	*n = looseNumber(f)
	return nil
}

// looseTime accepts RFC 3339 strings and epoch milliseconds. Unparseable
// values decode to nil rather than failing the record.
type looseTime struct {
	t *time.Time
}

func (lt *looseTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	lt.t = nil
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			lt.t = &parsed
		}
		return nil
	}
	if ms, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		parsed := time.UnixMilli(ms).UTC()
		lt.t = &parsed
	}
	return nil
}
