package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PravakarDas/YT-Playlist-Downloader/internal/models"
)

// Registry owns the in-memory job table. Every operation is serialized by
// a single mutex; operations are O(job count) at worst and the workload is
// dominated by download I/O, so finer locking buys nothing.
//
// Ownership checks never distinguish "wrong client" from "unknown job" so
// a foreign job id leaks nothing.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{jobs: make(map[string]*models.Job)}
}

// CreateJobParams collects inputs required to insert a job. FileType and
// Quality are raw client values; unknown values fall back to video/high.
type CreateJobParams struct {
	ClientID string
	URL      string
	FileType string
	Quality  string
	Indices  []int
}

// Create inserts a pending job with no items and returns a copy of it.
// Indices are deduplicated, sorted and stripped of non-positive values.
func (r *Registry) Create(p CreateJobParams) models.Job {
	job := &models.Job{
		ID:        uuid.New().String(),
		ClientID:  p.ClientID,
		URL:       p.URL,
		FileType:  models.NormalizeFileType(p.FileType),
		Quality:   models.NormalizeQuality(p.Quality),
		Indices:   normalizeIndices(p.Indices),
		Status:    models.JobPending,
		CreatedAt: time.Now(),
		Items:     make(map[int]*models.ItemProgress),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	snapshot := copyJob(job)
	r.mu.Unlock()
	return snapshot
}

// MarkRunning transitions a pending job to running and returns a copy of
// its parameters for the worker. It returns false when the job is gone or
// already past pending, in which case the worker must not run.
func (r *Registry) MarkRunning(jobID string) (models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok || job.Status != models.JobPending {
		return models.Job{}, false
	}
	job.Status = models.JobRunning
	return copyJob(job), true
}

// SetItemProgress applies a downloading observation to an item, creating
// the row on first sight. Percent is clamped to 0..100 and never moves
// backwards within an item.
func (r *Registry) SetItemProgress(jobID string, index int, title string, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return
	}
	it := upsertItem(job, index, title)
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent > it.Percent {
		it.Percent = percent
	}
	it.Status = models.ItemDownloading
}

// FinishItem marks an item complete. The output path, when non-empty, is
// recorded exactly once and never rewritten.
func (r *Registry) FinishItem(jobID string, index int, title, relPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return
	}
	it := upsertItem(job, index, title)
	it.Percent = 100
	it.Status = models.ItemFinished
	if it.FilePath == "" && relPath != "" {
		it.FilePath = relPath
	}
}

// Finish moves a job to its terminal finished status and records the
// resolved playlist title.
func (r *Registry) Finish(jobID, playlistTitle string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[jobID]; ok && !job.Status.Terminal() {
		job.Status = models.JobFinished
		job.PlaylistTitle = playlistTitle
	}
}

// Fail moves a job to its terminal error status. Accumulated item state is
// kept as-is.
func (r *Registry) Fail(jobID, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[jobID]; ok && !job.Status.Terminal() {
		job.Status = models.JobError
		job.Error = msg
	}
}

// Snapshot returns an immutable view of a job for the owning client. The
// second return is false for unknown job ids and foreign jobs alike.
func (r *Registry) Snapshot(jobID, clientID string) (models.JobView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok || job.ClientID != clientID {
		return models.JobView{}, false
	}

	view := models.JobView{
		Status:        job.Status,
		PlaylistTitle: job.PlaylistTitle,
		Error:         job.Error,
		Videos:        make([]models.ItemProgress, 0, len(job.Items)),
	}
	indices := make([]int, 0, len(job.Items))
	for idx := range job.Items {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		view.Videos = append(view.Videos, *job.Items[idx])
	}
	return view, true
}

// Files returns the recorded output path of every finished item, in
// arbitrary order. Ownership rules match Snapshot.
func (r *Registry) Files(jobID, clientID string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok || job.ClientID != clientID {
		return nil, false
	}
	paths := make([]string, 0, len(job.Items))
	for _, it := range job.Items {
		if it.FilePath != "" {
			paths = append(paths, it.FilePath)
		}
	}
	return paths, true
}

// ClearClient removes every job owned by the client. Calling it for a
// client with no jobs is a no-op.
func (r *Registry) ClearClient(clientID string) {
	if clientID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, job := range r.jobs {
		if job.ClientID == clientID {
			delete(r.jobs, id)
		}
	}
}

func upsertItem(job *models.Job, index int, title string) *models.ItemProgress {
	it, ok := job.Items[index]
	if !ok {
		it = &models.ItemProgress{
			Index:  index,
			Status: models.ItemPending,
		}
		job.Items[index] = it
	}
	if title != "" {
		it.Title = title
	}
	return it
}

func copyJob(job *models.Job) models.Job {
	cp := *job
	cp.Indices = append([]int(nil), job.Indices...)
	cp.Items = nil
	return cp
}

func normalizeIndices(indices []int) []int {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if i <= 0 {
			continue
		}
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
