package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PravakarDas/YT-Playlist-Downloader/internal/models"
)

const defaultInspectTimeout = 60 * time.Second

// Client drives the yt-dlp binary for metadata inspection and batch
// downloads. It is stateless and safe for concurrent use.
type Client struct {
	bin            string
	inspectTimeout time.Duration
}

// NewClient builds a client around the given yt-dlp binary path.
func NewClient(bin string, inspectTimeout time.Duration) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	if inspectTimeout <= 0 {
		inspectTimeout = defaultInspectTimeout
	}
	return &Client{bin: bin, inspectTimeout: inspectTimeout}
}

// CheckDependencies verifies that yt-dlp and ffmpeg are on PATH. ffmpeg is
// required for audio extraction.
func CheckDependencies(bin string) error {
	if bin == "" {
		bin = "yt-dlp"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", bin)
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("missing dependency: ffmpeg is required for audio extraction and was not found on PATH")
	}
	return nil
}

// Inspect resolves URL metadata without downloading anything.
func (c *Client) Inspect(ctx context.Context, url string) (*models.PlaylistInfo, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("source URL is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.inspectTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin, "--flat-playlist", "--skip-download", "--no-warnings", "-J", url)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("yt-dlp returned empty output")
	}
	return parseFlatInfo(stdout.Bytes())
}

// Download fetches the requested items, reporting structured progress
// events to sink from the calling goroutine as lines arrive from yt-dlp.
// Per-item failures are tolerated and do not fail the batch.
func (c *Client) Download(ctx context.Context, req models.DownloadRequest, sink func(models.ProgressEvent)) (models.DownloadSummary, error) {
	args := buildDownloadArgs(req)
	cmd := exec.CommandContext(ctx, c.bin, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return models.DownloadSummary{}, fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return models.DownloadSummary{}, fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return models.DownloadSummary{}, fmt.Errorf("start yt-dlp: %w", err)
	}

	var (
		wg            sync.WaitGroup
		errBuf        limitedBuffer
		summary       models.DownloadSummary
		playlistTitle string
		lastTitle     string
		sawEvents     bool
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdoutPipe, func(line string) {
			ev, ok := parseProgressLine(line)
			if !ok {
				return
			}
			sawEvents = true
			if ev.PlaylistTitle != "" {
				playlistTitle = ev.PlaylistTitle
			}
			if ev.Index > 0 || ev.PlaylistTitle != "" {
				summary.Playlist = true
			}
			if ev.Title != "" {
				lastTitle = ev.Title
			}
			if sink != nil {
				sink(ev)
			}
		})
	}()
	go func() {
		defer wg.Done()
		scanLines(stderrPipe, errBuf.append)
	}()
	wg.Wait()

	waitErr := cmd.Wait()
	if summary.Playlist {
		summary.Title = playlistTitle
	} else {
		summary.Title = lastTitle
	}
	if waitErr != nil {
		// A non-zero exit after progress events means some items failed;
		// error-tolerant mode keeps the batch result.
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && sawEvents {
			return summary, nil
		}
		return models.DownloadSummary{}, fmt.Errorf("yt-dlp failed: %w: %s", waitErr, errBuf.String())
	}
	return summary, nil
}

func buildDownloadArgs(req models.DownloadRequest) []string {
	args := []string{
		"--newline",
		"--ignore-errors",
		"--no-warnings",
		"-f", req.Format,
		"-o", filepath.Join(req.OutputDir, "%(playlist_title)s", "%(title)s.%(ext)s"),
		"--progress-template", progressTemplate,
	}
	if req.ExtractAudio {
		args = append(args, "-x", "--audio-format", "mp3", "--audio-quality", "192K")
	}
	if len(req.Items) > 0 {
		parts := make([]string, 0, len(req.Items))
		for _, i := range req.Items {
			parts = append(parts, strconv.Itoa(i))
		}
		args = append(args, "--playlist-items", strings.Join(parts, ","))
	}
	return append(args, req.URL)
}

// scanLines reads a yt-dlp output stream line by line, treating bare
// carriage returns as line breaks so in-place progress updates are seen.
func scanLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	scanner.Split(splitByNewlineOrCR)
	for scanner.Scan() {
		fn(scanner.Text())
	}
}

func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// limitedBuffer keeps the head of the stream for error messages.
type limitedBuffer struct {
	b strings.Builder
}

const maxKeep = 8192

func (l *limitedBuffer) append(line string) {
	if l.b.Len() >= maxKeep {
		return
	}
	toWrite := line + "\n"
	if remain := maxKeep - l.b.Len(); len(toWrite) > remain {
		toWrite = toWrite[:remain]
	}
	l.b.WriteString(toWrite)
}

func (l *limitedBuffer) String() string {
	return strings.TrimSpace(l.b.String())
}
