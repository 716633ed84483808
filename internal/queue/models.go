package queue

import "time"

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending      Status = "pending"
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	// StatusReview marks items that failed in a way retrying cannot fix,
	// such as a missing file or bad configuration.
	StatusReview Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusTranscribing,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// IsValid reports whether the status is a known lifecycle state.
func (s Status) IsValid() bool {
	_, ok := statusSet[s]
	return ok
}

var processingStatuses = []Status{StatusExtracting, StatusTranscribing}

// IsProcessing reports whether the status marks an in-flight item.
func (s Status) IsProcessing() bool {
	for _, status := range processingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Item represents one enqueued media file.
type Item struct {
	ID           int64     `json:"id"`
	SourcePath   string    `json:"source_path"`
	Status       Status    `json:"status"`
	Provider     string    `json:"provider"`
	OutputPath   string    `json:"output_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary aggregates queue counts per lifecycle group.
type Summary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
	Review     int
}
