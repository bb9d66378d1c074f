package models

import (
	"strings"
	"time"
)

// JobStatus enumerates the lifecycle of a download job.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobFinished JobStatus = "finished"
	JobError    JobStatus = "error"
)

// Terminal reports whether a job can no longer change state.
func (s JobStatus) Terminal() bool {
	return s == JobFinished || s == JobError
}

// ItemStatus tracks one playlist item inside a job, independent of the
// job-level status.
type ItemStatus string

const (
	ItemPending     ItemStatus = "pending"
	ItemDownloading ItemStatus = "downloading"
	ItemFinished    ItemStatus = "finished"
)

// FileType selects the delivered container. Values match the wire format
// accepted by the download endpoint.
type FileType string

const (
	FileTypeVideo FileType = "mp4"
	FileTypeAudio FileType = "mp3"
)

// Quality selects the video quality tier. Ignored for audio downloads.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// NormalizeFileType coerces arbitrary client input to a known file type,
// defaulting to video.
func NormalizeFileType(raw string) FileType {
	if FileType(strings.ToLower(strings.TrimSpace(raw))) == FileTypeAudio {
		return FileTypeAudio
	}
	return FileTypeVideo
}

// NormalizeQuality coerces arbitrary client input to a known quality tier,
// defaulting to high.
func NormalizeQuality(raw string) Quality {
	switch Quality(strings.ToLower(strings.TrimSpace(raw))) {
	case QualityMedium:
		return QualityMedium
	case QualityLow:
		return QualityLow
	default:
		return QualityHigh
	}
}

// ItemProgress is the per-item progress row exposed to pollers.
type ItemProgress struct {
	Index    int        `json:"index"`
	Title    string     `json:"title"`
	Percent  int        `json:"progress"`
	Status   ItemStatus `json:"status"`
	FilePath string     `json:"filepath,omitempty"`
}

// Job is one fetch operation for one client. Indices, URL, FileType and
// Quality are immutable after creation; everything else is owned by the
// job's worker until a terminal status is reached.
type Job struct {
	ID            string
	ClientID      string
	URL           string
	FileType      FileType
	Quality       Quality
	Indices       []int
	Status        JobStatus
	PlaylistTitle string
	Error         string
	CreatedAt     time.Time
	Items         map[int]*ItemProgress
}

// JobView is an immutable point-in-time copy of a job's observable state,
// with items sorted by playlist index.
type JobView struct {
	Status        JobStatus      `json:"status"`
	PlaylistTitle string         `json:"playlist_title"`
	Videos        []ItemProgress `json:"videos"`
	Error         string         `json:"error,omitempty"`
}
