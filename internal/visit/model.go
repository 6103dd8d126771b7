package visit

// Status represents the state of a visit request
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusDeclined Status = "DECLINED"
	StatusCanceled Status = "CANCELED"
)

// IsSupportedStatus reports whether s is one of the known visit statuses
func IsSupportedStatus(s Status) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCanceled:
		return true
	}
	return false
}

// Visit is a request by a user to tour an apartment. Visits are never
// deleted; canceled ones are kept for history.
type Visit struct {
	ID          string `json:"id"`
	RequesterID string `json:"requester_id"`
	CreatedAt   int64  `json:"created_at"`   // epoch ms
	ScheduledTo int64  `json:"scheduled_to"` // epoch ms
	Status      Status `json:"status"`
}
