package approval

// Status is the review state of a request as reported by the approval backend.
type Status string

const (
	StatusPending          Status = "pending"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusChangesRequested Status = "changes_requested"
)

// Terminal reports whether no further status transition can occur.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusChangesRequested:
		return true
	}

	return false
}

// Request is the slice of a backend task the bot cares about: its status plus
// the custom fields needed to route a notification back to the submitter.
type Request struct {
	ID       string
	Status   Status
	UserID   int64
	Language string
}

// Submission carries everything needed to open a request on the backend.
type Submission struct {
	UserID      int64
	FIO         string
	BadgeNumber string
	Language    string
	Evidence    [][]byte
}
