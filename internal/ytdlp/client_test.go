package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/PravakarDas/YT-Playlist-Downloader/internal/models"
)

func TestBuildDownloadArgsVideo(t *testing.T) {
	args := buildDownloadArgs(models.DownloadRequest{
		URL:       "https://example.com/playlist",
		Format:    "best[ext=mp4]/best",
		OutputDir: "/data/client1",
		Items:     []int{1, 3, 7},
	})

	if args[len(args)-1] != "https://example.com/playlist" {
		t.Fatalf("URL must be the final argument, got %q", args[len(args)-1])
	}
	assertFlag(t, args, "-f", "best[ext=mp4]/best")
	assertFlag(t, args, "-o", filepath.Join("/data/client1", "%(playlist_title)s", "%(title)s.%(ext)s"))
	assertFlag(t, args, "--playlist-items", "1,3,7")
	if slices.Contains(args, "-x") {
		t.Fatalf("video request must not extract audio: %v", args)
	}
	if !slices.Contains(args, "--ignore-errors") {
		t.Fatalf("batch downloads must be error tolerant: %v", args)
	}
}

func TestBuildDownloadArgsAudio(t *testing.T) {
	args := buildDownloadArgs(models.DownloadRequest{
		URL:          "https://example.com/v",
		Format:       "bestaudio/best",
		OutputDir:    "/data/client1",
		ExtractAudio: true,
	})

	if !slices.Contains(args, "-x") {
		t.Fatalf("audio request must extract audio: %v", args)
	}
	assertFlag(t, args, "--audio-format", "mp3")
	if slices.Contains(args, "--playlist-items") {
		t.Fatalf("no item restriction expected: %v", args)
	}
}

func assertFlag(t *testing.T, args []string, flag, want string) {
	t.Helper()
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		t.Fatalf("flag %s missing from %v", flag, args)
	}
	if args[i+1] != want {
		t.Fatalf("flag %s = %q, want %q", flag, args[i+1], want)
	}
}

// writeFakeBinary stands in for yt-dlp so Download's process handling can
// be exercised without the real tool.
func writeFakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binary is a shell script")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDownloadToleratesPerItemFailures(t *testing.T) {
	// One item succeeds, then yt-dlp exits non-zero for an unavailable
	// item; error-tolerant mode keeps the batch result.
	bin := writeFakeBinary(t, `
echo 'dlprog:{"status":"downloading","index":1,"downloaded":50,"total":100,"estimate":null,"filename":"f.mp4","title":"First","playlist_title":"My Playlist"}'
echo 'dlprog:{"status":"finished","index":1,"downloaded":100,"total":100,"estimate":null,"filename":"f.mp4","title":"First","playlist_title":"My Playlist"}'
echo 'ERROR: [youtube] video 2 is unavailable' >&2
exit 1
`)
	c := NewClient(bin, time.Second)

	var events []models.ProgressEvent
	summary, err := c.Download(context.Background(), models.DownloadRequest{
		URL:       "https://example.com/playlist",
		Format:    "best",
		OutputDir: t.TempDir(),
	}, func(ev models.ProgressEvent) { events = append(events, ev) })

	if err != nil {
		t.Fatalf("partial failure must not fail the batch: %v", err)
	}
	if !summary.Playlist || summary.Title != "My Playlist" {
		t.Fatalf("summary = %+v", summary)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[1].Status != models.EventFinished {
		t.Fatalf("last event = %+v", events[1])
	}
}

func TestDownloadFailsWithoutProgress(t *testing.T) {
	bin := writeFakeBinary(t, `
echo 'ERROR: not a valid URL' >&2
exit 1
`)
	c := NewClient(bin, time.Second)

	_, err := c.Download(context.Background(), models.DownloadRequest{
		URL:       "not-a-url",
		Format:    "best",
		OutputDir: t.TempDir(),
	}, nil)

	if err == nil {
		t.Fatal("non-zero exit with no progress must fail the batch")
	}
	if !strings.Contains(err.Error(), "not a valid URL") {
		t.Fatalf("error must carry stderr, got %v", err)
	}
}

func TestDownloadSingleVideoSummary(t *testing.T) {
	bin := writeFakeBinary(t, `
echo 'dlprog:{"status":"finished","index":null,"downloaded":10,"total":10,"estimate":null,"filename":"v.mp4","title":"Lone Video","playlist_title":null}'
exit 0
`)
	c := NewClient(bin, time.Second)

	summary, err := c.Download(context.Background(), models.DownloadRequest{
		URL:       "https://example.com/v",
		Format:    "best",
		OutputDir: t.TempDir(),
	}, nil)

	if err != nil {
		t.Fatal(err)
	}
	if summary.Playlist {
		t.Fatal("single video must not be reported as a playlist")
	}
	if summary.Title != "Lone Video" {
		t.Fatalf("title = %q", summary.Title)
	}
}

func TestSplitByNewlineOrCR(t *testing.T) {
	var lines []string
	scanLines(strings.NewReader("a\nb\rc"), func(l string) { lines = append(lines, l) })
	want := []string{"a", "b", "c"}
	if !slices.Equal(lines, want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
}
