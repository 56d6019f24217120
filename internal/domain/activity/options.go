package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	SessionID    *string
	SubjectID    *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
