package models

// PlaylistEntry is one selectable item discovered during metadata
// inspection.
type PlaylistEntry struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// PlaylistInfo is the normalized result of a metadata-only URL resolution.
// A single video is represented as a one-entry list.
type PlaylistInfo struct {
	Title  string
	Videos []PlaylistEntry
}

// Progress event statuses reported by the fetch engine.
const (
	EventDownloading = "downloading"
	EventFinished    = "finished"
)

// ProgressEvent is one structured progress callback from the fetch engine.
// Index is the 1-based playlist position, or 0 when the download is not
// part of a playlist.
type ProgressEvent struct {
	Status        string
	Index         int
	Title         string
	Downloaded    int64
	Total         int64
	Filename      string
	PlaylistTitle string
}

// DownloadRequest carries the immutable inputs of one engine invocation.
type DownloadRequest struct {
	URL          string
	Format       string
	OutputDir    string
	Items        []int
	ExtractAudio bool
}

// DownloadSummary reports what the engine resolved once the batch call
// returns. Title is empty when no usable title was observed.
type DownloadSummary struct {
	Title    string
	Playlist bool
}
