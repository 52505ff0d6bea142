package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	ProjectID    *string
	ActivityType *ActivityType
	Actor        string
	Limit        int
	Offset       int
}
