package model

const (
	CloneJobStatusRunning   = "running"
	CloneJobStatusDone      = "done"
	CloneJobStatusFailed    = "failed"
	CloneJobStatusAbandoned = "abandoned"
)

// CloneJob tracks one copy operation. A job stuck in running past the sweep
// threshold marks an interrupted clone that may have left a partial graph
// behind (there is no transactional envelope across the entity writes).
type CloneJob struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	SourceListID string `json:"source_list_id"`
	NewListID    string `json:"new_list_id"`
	Status       string `json:"status"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
