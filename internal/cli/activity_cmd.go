package cli

import (
	"errors"

	"github.com/rpggio/bluecarbon/internal/domain/activity"
	"github.com/spf13/cobra"
)

func newActivityCmd(app *App) *cobra.Command {
	var projectID, activityType, actor string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the mutation trail, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Activity == nil {
				return errors.New("activity log is not available")
			}
			opts := activity.ListActivityOptions{Actor: actor, Limit: limit, Offset: offset}
			if projectID != "" {
				opts.ProjectID = &projectID
			}
			if activityType != "" {
				t := activity.ActivityType(activityType)
				opts.ActivityType = &t
			}
			entries, err := app.Activity.GetRecentActivity(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []activity.ActivityEntry{}
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Only entries for this project")
	cmd.Flags().StringVar(&activityType, "type", "", "Only entries of this type")
	cmd.Flags().StringVar(&actor, "actor", "", "Only entries by this actor")
	cmd.Flags().IntVar(&limit, "limit", activity.DefaultListLimit, "Maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many entries")
	return cmd
}
