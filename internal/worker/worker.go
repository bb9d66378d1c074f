package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PravakarDas/YT-Playlist-Downloader/internal/config"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/models"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/store"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/telemetry"
)

// Engine performs the actual media downloads, invoking the sink once per
// progress event from its own call stack.
type Engine interface {
	Download(ctx context.Context, req models.DownloadRequest, sink func(models.ProgressEvent)) (models.DownloadSummary, error)
}

// FormatFunc resolves a (file type, quality) pair to an engine format
// selector.
type FormatFunc func(models.FileType, models.Quality) string

// Runner executes download jobs, one goroutine per job, and drives each to
// a terminal status. There is no admission control: every launched job
// runs immediately.
type Runner struct {
	cfg          config.Config
	store        *store.Registry
	engine       Engine
	selectFormat FormatFunc
}

// NewRunner constructs a runner over the given registry and engine.
func NewRunner(cfg config.Config, st *store.Registry, engine Engine, selectFormat FormatFunc) *Runner {
	return &Runner{cfg: cfg, store: st, engine: engine, selectFormat: selectFormat}
}

// Launch schedules the job on a new goroutine and returns immediately.
// The job is fire-and-forget: it cannot be cancelled and survives the
// client navigating away.
func (r *Runner) Launch(jobID string) {
	go r.run(jobID)
}

func (r *Runner) run(jobID string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.store.Fail(jobID, fmt.Sprintf("download worker panic: %v", rec))
			telemetry.JobsFailed.Inc()
		}
	}()

	job, ok := r.store.MarkRunning(jobID)
	if !ok {
		return
	}
	telemetry.JobsRunning.Inc()
	defer telemetry.JobsRunning.Dec()

	clientDir := filepath.Join(r.cfg.DownloadRoot, job.ClientID)
	if err := os.MkdirAll(clientDir, 0o755); err != nil {
		r.store.Fail(jobID, fmt.Sprintf("create client directory: %v", err))
		telemetry.JobsFailed.Inc()
		return
	}

	req := models.DownloadRequest{
		URL:          job.URL,
		Format:       r.selectFormat(job.FileType, job.Quality),
		OutputDir:    clientDir,
		Items:        job.Indices,
		ExtractAudio: job.FileType == models.FileTypeAudio,
	}

	summary, err := r.engine.Download(context.Background(), req, func(ev models.ProgressEvent) {
		r.apply(jobID, job.FileType, ev)
	})
	if err != nil {
		r.store.Fail(jobID, err.Error())
		telemetry.JobsFailed.Inc()
		return
	}

	r.store.Finish(jobID, resolveTitle(summary))
	telemetry.JobsFinished.Inc()
}

// apply translates one engine event into a registry mutation.
func (r *Runner) apply(jobID string, fileType models.FileType, ev models.ProgressEvent) {
	title := ev.Title
	if title == "" {
		title = "Video"
		if ev.Index > 0 {
			title = fmt.Sprintf("Video %d", ev.Index)
		}
	}

	switch ev.Status {
	case models.EventDownloading:
		percent := 0
		if ev.Total > 0 {
			percent = int(ev.Downloaded * 100 / ev.Total)
		}
		r.store.SetItemProgress(jobID, ev.Index, title, percent)
	case models.EventFinished:
		r.store.FinishItem(jobID, ev.Index, title, r.resolvePath(fileType, ev.Filename))
		telemetry.ItemsFinished.Inc()
	}
}

// resolvePath converts the engine's reported filename into a path relative
// to the download root. For audio jobs the extraction post-step produces a
// sibling .mp3 the finished event does not mention; prefer it when it
// already exists.
func (r *Runner) resolvePath(fileType models.FileType, filename string) string {
	if filename == "" {
		return ""
	}
	final := filename
	if fileType == models.FileTypeAudio {
		candidate := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".mp3"
		if _, err := os.Stat(candidate); err == nil {
			final = candidate
		}
	}
	rel, err := filepath.Rel(r.cfg.DownloadRoot, final)
	if err != nil {
		rel = final
	}
	return filepath.ToSlash(rel)
}

func resolveTitle(summary models.DownloadSummary) string {
	if summary.Title != "" {
		return summary.Title
	}
	if summary.Playlist {
		return "Playlist"
	}
	return "Video"
}
