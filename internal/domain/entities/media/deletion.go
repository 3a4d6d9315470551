package media

// Outcome statuses for itemized delete results
const (
	StatusDeleted = "deleted"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Operator-facing messages
const (
	MessageDeleted       = "File deleted successfully"
	MessageInUse         = "File is in use - skipped for safety"
	MessageDeleteFailed  = "Failed to delete attachment"
	MessageNotFound      = "Attachment not found"
	MessageUnresolved    = "Usage could not be verified - skipped for safety"
	MessageBatchComplete = "Batch processing complete"
)

// DeleteOneResult is the response to a single-item delete
type DeleteOneResult struct {
	OK                bool     `json:"ok"`
	ID                int64    `json:"id"`
	Message           string   `json:"message"`
	UsageExplanations []string `json:"usageExplanations,omitempty"`
}

// ItemResult is one itemized outcome inside a bulk delete
type ItemResult struct {
	ID      int64  `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RejectedItem is an item refused because it is still in use
type RejectedItem struct {
	ID                int64    `json:"id"`
	Filename          string   `json:"filename"`
	UsageExplanations []string `json:"usageExplanations"`
}

// DeleteManyResult is the response to a bulk delete over explicit ids
type DeleteManyResult struct {
	DeletedCount int            `json:"deletedCount"`
	FailedCount  int            `json:"failedCount"`
	Rejected     []RejectedItem `json:"rejected"`
	Results      []ItemResult   `json:"results"`
	Message      string         `json:"message"`
}

// BatchProgress is the response to one batch-all-safe call
type BatchProgress struct {
	DeletedCount    int     `json:"deletedCount"`
	FailedCount     int     `json:"failedCount"`
	ProcessedSoFar  int     `json:"processedSoFar"`
	TotalCandidates int     `json:"totalCandidates"`
	HasMore         bool    `json:"hasMore"`
	NextOffset      int     `json:"nextOffset"`
	ProgressPercent float64 `json:"progressPercent"`
	Message         string  `json:"message"`
	// Restarted is set when the snapshot was lost mid-run and the batch was
	// taken from the start of a rebuilt one
	Restarted bool `json:"restarted,omitempty"`
}

// CandidateSnapshot is the ordered id list a batch-all-safe run slices
type CandidateSnapshot struct {
	ScanID string  `json:"scanId"`
	IDs    []int64 `json:"ids"`
}
