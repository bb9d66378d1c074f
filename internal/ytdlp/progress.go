package ytdlp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PravakarDas/YT-Playlist-Downloader/internal/models"
)

// progressPrefix marks the structured progress lines this package asks
// yt-dlp to emit; everything else on stdout is ignored.
const progressPrefix = "dlprog:"

// progressTemplate renders one JSON object per progress hook invocation.
// The %(...)j conversion JSON-encodes each field, so missing values come
// through as null and titles with arbitrary characters stay parseable.
const progressTemplate = "download:" + progressPrefix +
	`{"status":%(progress.status)j` +
	`,"index":%(info.playlist_index)j` +
	`,"downloaded":%(progress.downloaded_bytes)j` +
	`,"total":%(progress.total_bytes)j` +
	`,"estimate":%(progress.total_bytes_estimate)j` +
	`,"filename":%(progress.filename)j` +
	`,"title":%(info.title)j` +
	`,"playlist_title":%(info.playlist_title)j}`

type progressLine struct {
	Status        string      `json:"status"`
	Index         json.Number `json:"index"`
	Downloaded    json.Number `json:"downloaded"`
	Total         json.Number `json:"total"`
	Estimate      json.Number `json:"estimate"`
	Filename      string      `json:"filename"`
	Title         string      `json:"title"`
	PlaylistTitle string      `json:"playlist_title"`
}

// parseProgressLine decodes one stdout line into a progress event. The
// second return is false for lines that are not progress output.
func parseProgressLine(line string) (models.ProgressEvent, bool) {
	payload, ok := strings.CutPrefix(strings.TrimSpace(line), progressPrefix)
	if !ok {
		return models.ProgressEvent{}, false
	}

	var p progressLine
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return models.ProgressEvent{}, false
	}

	total := asBytes(p.Total)
	if total == 0 {
		total = asBytes(p.Estimate)
	}
	return models.ProgressEvent{
		Status:        p.Status,
		Index:         int(asBytes(p.Index)),
		Title:         p.Title,
		Downloaded:    asBytes(p.Downloaded),
		Total:         total,
		Filename:      p.Filename,
		PlaylistTitle: p.PlaylistTitle,
	}, true
}

// asBytes tolerates yt-dlp reporting byte counts as either integers or
// floats, and absent values as null.
func asBytes(n json.Number) int64 {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return int64(f)
}

type flatInfo struct {
	Type    string       `json:"_type"`
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Entries []*flatEntry `json:"entries"`
}

type flatEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

const thumbnailTemplate = "https://i.ytimg.com/vi/%s/hqdefault.jpg"

// parseFlatInfo normalizes a flat-playlist JSON dump into an ordered entry
// list. Single videos become a one-entry list at index 1.
func parseFlatInfo(data []byte) (*models.PlaylistInfo, error) {
	var info flatInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}

	if info.Type == "playlist" {
		out := &models.PlaylistInfo{Title: info.Title}
		if out.Title == "" {
			out.Title = "Playlist"
		}
		for i, e := range info.Entries {
			if e == nil {
				continue
			}
			entry := models.PlaylistEntry{
				Index: i + 1,
				ID:    e.ID,
				Title: e.Title,
			}
			if entry.Title == "" {
				entry.Title = fmt.Sprintf("Video %d", entry.Index)
			}
			if e.ID != "" {
				entry.Thumbnail = fmt.Sprintf(thumbnailTemplate, e.ID)
			}
			out.Videos = append(out.Videos, entry)
		}
		return out, nil
	}

	title := info.Title
	if title == "" {
		title = "Video"
	}
	entry := models.PlaylistEntry{Index: 1, ID: info.ID, Title: title}
	if info.ID != "" {
		entry.Thumbnail = fmt.Sprintf(thumbnailTemplate, info.ID)
	}
	return &models.PlaylistInfo{Title: title, Videos: []models.PlaylistEntry{entry}}, nil
}
