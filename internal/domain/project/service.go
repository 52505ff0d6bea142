package project

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/bluecarbon/internal/domain/activity"
	"github.com/rpggio/bluecarbon/internal/repository"
)

const (
	// ProjectsKey holds the JSON array of canonical records.
	ProjectsKey = "bluecarbon_projects"
	// VersionKey holds the schema version of the stored collection.
	VersionKey = "bluecarbon_storage_version"

	// DefaultActor is stamped when a status change names no actor.
	DefaultActor = "system"

	maxIDAttempts = 16
)

// Service is the sole gateway to the persisted project collection.
// Mutations hold mu for their whole load, modify and write cycle.
type Service struct {
	mu       sync.RWMutex
	storage  Storage
	logger   *slog.Logger
	activity ActivityLogger
	now      func() time.Time
	newID    func() string
	strict   bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides project id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithActivityLog records every successful mutation through l.
func WithActivityLog(l ActivityLogger) Option {
	return func(s *Service) { s.activity = l }
}

// WithStrictTransitions rejects status changes that are not a single
// forward step in the lifecycle.
func WithStrictTransitions(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// NewService creates a new project store over storage.
func NewService(storage Storage, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
		newID:   newProjectID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest defines project submission inputs.
type CreateRequest struct {
	ProjectName   string
	Location      string
	Hectares      float64
	EcosystemType EcosystemType
	Latitude      string
	Longitude     string
	Coordinates   string
	Description   string
	Images        []string
	SubmittedBy   string
	Organization  string
}

// EnsureMigrated brings the stored collection to the current schema version.
// It runs once at startup; a second call on a current store writes nothing.
func (s *Service) EnsureMigrated(ctx context.Context) (MigrationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := s.storage.Read(ctx, VersionKey)
	if errors.Is(err, repository.ErrNotFound) {
		if err := s.storage.Write(ctx, VersionKey, SchemaVersion); err != nil {
			return MigrationResult{}, &StorageError{Op: "write", Key: VersionKey, Err: err}
		}
		return MigrationResult{Initialized: true}, nil
	}
	if err != nil {
		return MigrationResult{}, &StorageError{Op: "read", Key: VersionKey, Err: err}
	}
	if version == SchemaVersion {
		return MigrationResult{}, nil
	}

	s.logger.Info("migrating project storage", "from", version, "to", SchemaVersion)
	projects, err := s.load(ctx)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("migrating from %s: %w", version, err)
	}
	migrated, err := s.write(ctx, projects, true)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("migrating from %s: %w", version, err)
	}
	s.logger.Info("migration completed", "projects", len(migrated))

	s.record(ctx, activity.ActivityEntry{
		ActivityType: activity.TypeSchemaMigrated,
		Summary:      fmt.Sprintf("migrated %d projects from %s to %s", len(migrated), version, SchemaVersion),
		Details:      detailsJSON(map[string]any{"from": version, "to": SchemaVersion, "count": len(migrated)}),
	})
	return MigrationResult{From: version, To: SchemaVersion, Migrated: len(migrated)}, nil
}

// GetProjects returns every record in insertion order. A blob that cannot be
// read is logged and reported as an empty collection.
func (s *Service) GetProjects(ctx context.Context) []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects, err := s.load(ctx)
	if err != nil {
		s.logger.Error("failed to load projects", "error", err)
		return []Project{}
	}
	return projects
}

// SaveProjects canonicalizes records and overwrites the whole collection.
func (s *Service) SaveProjects(ctx context.Context, records []Project) error {
	if err := validateRecords(records); err != nil {
		s.logger.Error("failed to save projects", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.write(ctx, records, false)
	if err != nil {
		s.logger.Error("failed to save projects", "error", err)
		return err
	}
	s.record(ctx, activity.ActivityEntry{
		ActivityType: activity.TypeCollectionSaved,
		Summary:      fmt.Sprintf("saved %d projects", len(saved)),
	})
	return nil
}

// AddProject appends a new submitted project. Any id the caller had in mind
// is ignored; a fresh one is always assigned.
func (s *Service) AddProject(ctx context.Context, req CreateRequest) (*Project, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load(ctx)
	if err != nil {
		s.logger.Error("failed to add project", "error", err)
		return nil, err
	}
	id, err := s.freshID(func(id string) bool { return indexOf(projects, id) >= 0 })
	if err != nil {
		s.logger.Error("failed to add project", "error", err)
		return nil, err
	}

	now := s.now().UTC()
	proj := Project{
		ID:               id,
		ProjectName:      req.ProjectName,
		Location:         req.Location,
		Hectares:         req.Hectares,
		EcosystemType:    req.EcosystemType,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Coordinates:      req.Coordinates,
		Description:      req.Description,
		Images:           append([]string(nil), req.Images...),
		Status:           StatusSubmitted,
		SubmittedAt:      now,
		SubmittedBy:      req.SubmittedBy,
		Organization:     req.Organization,
		EstimatedCredits: EstimateCredits(req.Hectares),
	}
	proj = canonicalize(proj, now, s.newID)

	if _, err := s.write(ctx, append(projects, proj), false); err != nil {
		s.logger.Error("failed to add project", "project_id", proj.ID, "error", err)
		return nil, err
	}

	s.record(ctx, activity.ActivityEntry{
		ProjectID:    &proj.ID,
		ActivityType: activity.TypeProjectSubmitted,
		Actor:        proj.SubmittedBy,
		Summary:      fmt.Sprintf("submitted %q (%g ha)", proj.ProjectName, proj.Hectares),
	})
	out := proj.Clone()
	return &out, nil
}

// UpdateProjectStatus sets a project's status and stamps the transition.
// Approval records approvedAt/approvedBy; minting records mintedAt/mintedBy and
// issues creditsMinted = estimatedCredits. Unless strict transitions are
// enabled any valid status may be written, including backwards.
func (s *Service) UpdateProjectStatus(ctx context.Context, id string, status Status, actor string) (*Project, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if strings.TrimSpace(actor) == "" {
		actor = DefaultActor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load(ctx)
	if err != nil {
		s.logger.Error("failed to update project status", "project_id", id, "error", err)
		return nil, err
	}

	idx := indexOf(projects, id)
	if idx < 0 {
		s.logger.Warn("project not found", "project_id", id)
		return nil, ErrProjectNotFound
	}

	proj := projects[idx].Clone()
	from := proj.Status
	if s.strict {
		if err := ValidateTransition(from, status); err != nil {
			return nil, fmt.Errorf("%s -> %s: %w", from, status, err)
		}
	}

	now := s.now().UTC()
	proj.Status = status
	switch status {
	case StatusApproved:
		proj.ApprovedAt = &now
		proj.ApprovedBy = &actor
	case StatusMinted:
		proj.MintedAt = &now
		proj.MintedBy = &actor
		proj.CreditsMinted = proj.EstimatedCredits
	}
	if status != StatusMinted {
		proj.CreditsMinted = 0
	}
	projects[idx] = proj

	saved, err := s.write(ctx, projects, false)
	if err != nil {
		s.logger.Error("failed to update project status", "project_id", id, "error", err)
		return nil, err
	}

	s.record(ctx, activity.ActivityEntry{
		ProjectID:    &proj.ID,
		ActivityType: activity.TypeStatusChanged,
		Actor:        actor,
		Summary:      fmt.Sprintf("status %s -> %s", from, status),
		Details:      detailsJSON(map[string]any{"from": from, "to": status}),
	})
	out := saved[idx].Clone()
	return &out, nil
}

// GetProjectByID returns a copy of the project with the given id.
func (s *Service) GetProjectByID(ctx context.Context, id string) (*Project, error) {
	projects := s.GetProjects(ctx)
	if idx := indexOf(projects, id); idx >= 0 {
		return &projects[idx], nil
	}
	return nil, ErrProjectNotFound
}

// GetProjectsByStatus filters by exact status. StatusAll returns everything.
func (s *Service) GetProjectsByStatus(ctx context.Context, status Status) []Project {
	projects := s.GetProjects(ctx)
	if status == StatusAll {
		return projects
	}
	return filter(projects, func(p Project) bool { return p.Status == status })
}

// GetProjectsByUser filters by submitter identity.
func (s *Service) GetProjectsByUser(ctx context.Context, submittedBy string) []Project {
	return filter(s.GetProjects(ctx), func(p Project) bool { return p.SubmittedBy == submittedBy })
}

// GetProjectStats aggregates counts, area and credits over the collection.
func (s *Service) GetProjectStats(ctx context.Context) Stats {
	return ComputeStats(s.GetProjects(ctx))
}

// ComputeStats aggregates counts, area and credits over projects.
func ComputeStats(projects []Project) Stats {
	stats := Stats{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case StatusSubmitted:
			stats.Submitted++
		case StatusApproved:
			stats.Approved++
		case StatusMinted:
			stats.Minted++
		}
		stats.TotalHectares += p.Hectares
		stats.TotalCredits += p.CreditsMinted
		stats.EstimatedCredits += p.EstimatedCredits
	}
	return stats
}

// ClearProjects erases the collection and its version marker. Irreversible.
func (s *Service) ClearProjects(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{ProjectsKey, VersionKey} {
		if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, repository.ErrNotFound) {
			serr := &StorageError{Op: "delete", Key: key, Err: err}
			s.logger.Error("failed to clear projects", "error", serr)
			return serr
		}
	}
	s.logger.Info("project storage cleared")
	s.record(ctx, activity.ActivityEntry{
		ActivityType: activity.TypeCollectionCleared,
		Summary:      "cleared all projects",
	})
	return nil
}

// ExportProjects wraps the collection in a versioned, timestamped document.
func (s *Service) ExportProjects(ctx context.Context) ([]byte, error) {
	doc := ExportDocument{
		Version:    SchemaVersion,
		ExportedAt: s.now().UTC(),
		Projects:   s.GetProjects(ctx),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return data, nil
}

// ImportProjects replaces the collection with the records of document, which
// is either an export envelope or a bare array. Nothing is written unless the
// whole document decodes.
func (s *Service) ImportProjects(ctx context.Context, document []byte) (int, error) {
	records, err := parseImport(document)
	if err == nil {
		if verr := validateRecords(records); verr != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidImport, verr)
		}
	}
	if err != nil {
		s.logger.Error("failed to import projects", "error", err)
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.write(ctx, records, false)
	if err != nil {
		s.logger.Error("failed to import projects", "error", err)
		return 0, err
	}
	s.record(ctx, activity.ActivityEntry{
		ActivityType: activity.TypeCollectionImported,
		Summary:      fmt.Sprintf("imported %d projects", len(saved)),
	})
	return len(saved), nil
}

func parseImport(document []byte) ([]Project, error) {
	trimmed := bytes.TrimSpace(document)
	if len(trimmed) == 0 {
		return nil, ErrInvalidImport
	}

	raw := trimmed
	switch trimmed[0] {
	case '[':
	case '{':
		var envelope struct {
			Projects json.RawMessage `json:"projects"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		raw = bytes.TrimSpace(envelope.Projects)
		if len(raw) == 0 || raw[0] != '[' {
			return nil, fmt.Errorf("%w: missing projects array", ErrInvalidImport)
		}
	default:
		return nil, ErrInvalidImport
	}

	projects, err := decodeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	return projects, nil
}

// load reads and decodes the stored collection. An absent key is an empty
// collection, not an error.
func (s *Service) load(ctx context.Context) ([]Project, error) {
	data, err := s.storage.Read(ctx, ProjectsKey)
	if errors.Is(err, repository.ErrNotFound) {
		return []Project{}, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Key: ProjectsKey, Err: err}
	}
	if strings.TrimSpace(data) == "" {
		return []Project{}, nil
	}
	projects, err := decodeCollection([]byte(data))
	if err != nil {
		return nil, &StorageError{Op: "decode", Key: ProjectsKey, Err: err}
	}
	return projects, nil
}

// write canonicalizes records and persists them with the version marker.
// Callers hold mu. Duplicate ids fail the write unless reassign is set, in
// which case later duplicates get fresh ids.
func (s *Service) write(ctx context.Context, records []Project, reassign bool) ([]Project, error) {
	now := s.now().UTC()
	canonical := make([]Project, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		c := canonicalize(rec, now, s.newID)
		if _, dup := seen[c.ID]; dup {
			if !reassign {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
			}
			old := c.ID
			id, err := s.freshID(func(id string) bool { _, taken := seen[id]; return taken })
			if err != nil {
				return nil, err
			}
			c.ID = id
			s.logger.Warn("reassigned duplicate project id", "old_id", old, "new_id", c.ID)
		}
		seen[c.ID] = struct{}{}
		canonical = append(canonical, c)
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return nil, &StorageError{Op: "encode", Key: ProjectsKey, Err: err}
	}

	if bw, ok := s.storage.(BatchWriter); ok {
		err := bw.WriteBatch(ctx, map[string]string{
			ProjectsKey: string(data),
			VersionKey:  SchemaVersion,
		})
		if err != nil {
			return nil, &StorageError{Op: "write", Key: ProjectsKey, Err: err}
		}
		return canonical, nil
	}

	if err := s.storage.Write(ctx, ProjectsKey, string(data)); err != nil {
		return nil, &StorageError{Op: "write", Key: ProjectsKey, Err: err}
	}
	if err := s.storage.Write(ctx, VersionKey, SchemaVersion); err != nil {
		return nil, &StorageError{Op: "write", Key: VersionKey, Err: err}
	}
	return canonical, nil
}

// validateRecords checks caller-supplied records in their canonical form.
// Records already in storage are not revalidated, so migrated legacy values
// never block later mutations.
func validateRecords(records []Project) error {
	for _, rec := range records {
		c := canonicalize(rec, time.Time{}, func() string { return rec.ID })
		if err := ValidateRecord(c); err != nil {
			return err
		}
	}
	return nil
}

// freshID draws ids until one is neither empty nor taken.
func (s *Service) freshID(taken func(string) bool) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if strings.TrimSpace(id) != "" && !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIDExhausted, maxIDAttempts)
}

func (s *Service) record(ctx context.Context, entry activity.ActivityEntry) {
	if s.activity == nil {
		return
	}
	if err := s.activity.LogActivity(ctx, &entry); err != nil {
		s.logger.Warn("failed to record activity", "type", entry.ActivityType, "error", err)
	}
}

func indexOf(projects []Project, id string) int {
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}

func filter(projects []Project, keep func(Project) bool) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func detailsJSON(v map[string]any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func newProjectID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
