package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `bluecarbon stores blue-carbon restoration projects and walks them through a credit lifecycle.

Core concepts:
- Project: one restoration site (mangrove, seagrass, salt-marsh or wetland) with its area in hectares.
- Lifecycle: submitted → approved → minted. Approval and minting stamp who and when.
- Credits: estimatedCredits = floor(hectares × 150) at submission; creditsMinted equals estimatedCredits once minted, 0 otherwise.

Workflow:
1) Orient: get_project_stats, then list_projects (filter by status or submitted_by).
2) Submit: add_project. Ids are always assigned by the store.
3) Review: update_project_status with status=approved and actor set to the reviewer.
4) Issue: update_project_status with status=minted.
5) Audit: get_recent_activity shows every mutation, newest first.

Backups:
- export_projects returns a versioned document; import_projects accepts it (or a bare array) and replaces everything.
- clear_projects is irreversible and requires confirm=true.

Docs:
- bluecarbon://docs/index
- bluecarbon://docs/lifecycle
- bluecarbon://docs/backup
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "bluecarbon://docs/index",
		Name:        "docs_index",
		Title:       "bluecarbon docs index",
		Description: "Entry point: what the store holds and which doc to read next.",
		Content: `# bluecarbon: Docs Index

The store holds one ordered collection of projects. Every tool reads or rewrites that collection.

## Read next

- ` + "`bluecarbon://docs/lifecycle`" + `: statuses, stamps and credit rules.
- ` + "`bluecarbon://docs/backup`" + `: export/import document format and recovery.

## Error codes

- PROJECT_NOT_FOUND: no project has that id. Nothing was written.
- INVALID_STATUS: status is not submitted, approved or minted.
- INVALID_TRANSITION: strict transitions are enabled and the change is not one step forward.
- INVALID_INPUT: a parameter is out of range (negative hectares, unknown ecosystem, missing id).
- DUPLICATE_ID: a saved or imported collection repeats an id.
- INVALID_IMPORT: the document is not an export envelope or a JSON array of projects.
- STORAGE_ERROR: the backend failed or the stored collection is corrupt.
`,
	},
	{
		URI:         "bluecarbon://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Project lifecycle",
		Description: "Statuses, transition stamps and the credit invariant.",
		Content: `# Project lifecycle

` + "```" + `
submitted ──approve──▶ approved ──mint──▶ minted
` + "```" + `

## Stamps

- approved: approvedAt = now, approvedBy = actor.
- minted: mintedAt = now, mintedBy = actor, creditsMinted = estimatedCredits.
- The actor defaults to "system".

## Credits

- estimatedCredits = floor(hectares × 150), fixed at submission.
- creditsMinted is estimatedCredits when minted and 0 in every other status.
- Moving a minted project back to another status withdraws its credits.

## Transitions

By default any valid status may be set, including backwards moves (administrative override).
Servers started with strict transitions only accept one forward step at a time.
`,
	},
	{
		URI:         "bluecarbon://docs/backup",
		Name:        "docs_backup",
		Title:       "Export and import",
		Description: "Backup document format and restore semantics.",
		Content: `# Export and import

## Export document

` + "```json" + `
{
  "version": "1.0.0",
  "exportedAt": "2026-01-01T00:00:00Z",
  "projects": [ ... ]
}
` + "```" + `

## Import

- Accepts the export envelope or a bare JSON array of projects.
- Replaces the whole collection. Records are normalized to the current schema.
- A malformed document changes nothing.
- Ids must be unique within the document.

## Recovery

If the stored collection is corrupt, reads return an empty list and submissions fail with STORAGE_ERROR.
Import a known-good export (or clear) to recover.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
