package ytdlp

import (
	"regexp"
	"strings"

	"github.com/PravakarDas/YT-Playlist-Downloader/internal/models"
)

// SelectFormat maps a (file type, quality) pair to a yt-dlp format
// selector. Video selectors prefer progressive mp4 streams so a download
// yields one file instead of separate video and audio tracks. Callers
// normalize unknown inputs before the lookup, so every pair resolves.
func SelectFormat(fileType models.FileType, quality models.Quality) string {
	if fileType == models.FileTypeAudio {
		return "bestaudio/best"
	}
	switch quality {
	case models.QualityLow:
		return "worst[ext=mp4]/worst"
	case models.QualityMedium:
		return "best[height<=720][ext=mp4]/best[ext=mp4]/best"
	default:
		return "best[ext=mp4]/best"
	}
}

var unsafeSegment = regexp.MustCompile(`[^a-zA-Z0-9_\-]+`)

// Sanitize reduces arbitrary text to a filesystem-safe path segment.
func Sanitize(text string) string {
	s := unsafeSegment.ReplaceAllString(text, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "item"
	}
	return s
}
