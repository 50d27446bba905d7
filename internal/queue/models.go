package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a work item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Kind distinguishes the two work-item variants.
type Kind string

const (
	// KindConvert is a single-image re-encode item.
	KindConvert Kind = "convert"
	// KindArchiveGroup is a folder-to-archive group task.
	KindArchiveGroup Kind = "archive_group"
)

// Member is one file inside an archive-group task. Path is the entry path
// inside the archive (leading group segment already stripped); Source is the
// absolute path of the input file.
type Member struct {
	Path   string `json:"path"`
	Source string `json:"source"`
	Size   int64  `json:"size"`
}

// Item represents a work item persisted in SQLite.
type Item struct {
	ID              int64
	Kind            Kind
	SourcePath      string
	SourceName      string
	SourceBytes     int64
	MIMEType        string
	Width           int
	Height          int
	GroupName       string
	MembersJSON     string
	TotalInputBytes int64
	Status          Status
	ProgressPercent float64
	ProgressMessage string
	OutputPath      string
	OutputBytes     int64
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HealthSummary describes aggregated item counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the item has reached a sticky terminal state.
func (i Item) IsTerminal() bool {
	return i.Status == StatusCompleted || i.Status == StatusFailed
}

// Members decodes the frozen member list of an archive-group task.
func (i Item) Members() ([]Member, error) {
	if strings.TrimSpace(i.MembersJSON) == "" {
		return nil, nil
	}
	var members []Member
	if err := json.Unmarshal([]byte(i.MembersJSON), &members); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}
	return members, nil
}

// SetProcessing moves the item into the processing state, resetting
// progress and clearing any stale failure detail.
func (i *Item) SetProcessing(message string) {
	i.Status = StatusProcessing
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.ErrorMessage = ""
}

// SetCompleted records the output payload location and marks the item done.
// Output and error detail are mutually exclusive.
func (i *Item) SetCompleted(outputPath string, outputBytes int64) {
	i.Status = StatusCompleted
	i.OutputPath = outputPath
	i.OutputBytes = outputBytes
	i.ErrorMessage = ""
	i.ProgressPercent = 100
	i.ProgressMessage = "Completed"
}

// SetFailed marks the item as failed with a human-readable detail and
// discards any partial output reference.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.OutputPath = ""
	i.OutputBytes = 0
	i.ProgressPercent = 0
	i.ProgressMessage = message
}

func encodeMembers(members []Member) (string, int64, error) {
	var total int64
	for _, m := range members {
		total += m.Size
	}
	data, err := json.Marshal(members)
	if err != nil {
		return "", 0, fmt.Errorf("encode members: %w", err)
	}
	return string(data), total, nil
}
