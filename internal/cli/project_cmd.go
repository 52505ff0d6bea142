package cli

import (
	"fmt"

	"github.com/rpggio/bluecarbon/internal/domain/project"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), app.Projects.GetProjectStats(cmd.Context()))
		},
	}
}

func newListCmd(app *App) *cobra.Command {
	var status, user string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects in submission order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := project.Status(status)
			if s != project.StatusAll && !s.Valid() {
				return fmt.Errorf("invalid status %q: %w", status, project.ErrInvalidStatus)
			}

			var projects []project.Project
			if user != "" && s == project.StatusAll {
				projects = app.Projects.GetProjectsByUser(ctx, user)
			} else {
				projects = app.Projects.GetProjectsByStatus(ctx, s)
				if user != "" {
					kept := make([]project.Project, 0, len(projects))
					for _, p := range projects {
						if p.SubmittedBy == user {
							kept = append(kept, p)
						}
					}
					projects = kept
				}
			}
			return writeJSON(cmd.OutOrStdout(), projects)
		},
	}

	cmd.Flags().StringVar(&status, "status", string(project.StatusAll), "Filter by status (submitted, approved, minted, all)")
	cmd.Flags().StringVar(&user, "user", "", "Filter by submitter")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Projects.GetProjectByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("project %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	var req project.CreateRequest
	var ecosystem string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a new project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.EcosystemType = project.EcosystemType(ecosystem)
			p, err := app.Projects.AddProject(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVar(&req.ProjectName, "name", "", "Project name")
	cmd.Flags().StringVar(&req.Location, "location", "", "Location")
	cmd.Flags().Float64Var(&req.Hectares, "hectares", 0, "Restored area in hectares")
	cmd.Flags().StringVar(&ecosystem, "ecosystem", "", "mangrove, seagrass, salt-marsh or wetland")
	cmd.Flags().StringVar(&req.Latitude, "lat", "", "Latitude")
	cmd.Flags().StringVar(&req.Longitude, "lng", "", "Longitude")
	cmd.Flags().StringVar(&req.Description, "description", "", "Description")
	cmd.Flags().StringSliceVar(&req.Images, "image", nil, "Image reference (repeatable)")
	cmd.Flags().StringVar(&req.SubmittedBy, "submitted-by", "", "Submitter identity")
	cmd.Flags().StringVar(&req.Organization, "organization", "", "Submitting organization")
	return cmd
}

func newSetStatusCmd(app *App) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Move a project through its lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Projects.UpdateProjectStatus(cmd.Context(), args[0], project.Status(args[1]), actor)
			if err != nil {
				return fmt.Errorf("project %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVar(&actor, "actor", project.DefaultActor, "Who performs the change")
	return cmd
}
