package lifecycle

import (
	"os"
	"path/filepath"
	"time"

	"github.com/PravakarDas/YT-Playlist-Downloader/internal/store"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/telemetry"
)

// Sweeper reclaims disk and registry state for expired client sessions.
// It runs opportunistically on the request path and, optionally, on a
// periodic schedule; both entry points are safe to run concurrently with
// active workers. A worker may still be writing into a directory while it
// is deleted; the sweep never cancels or joins workers.
type Sweeper struct {
	root  string
	ttl   time.Duration
	store *store.Registry
}

// NewSweeper builds a sweeper over the download root.
func NewSweeper(root string, ttl time.Duration, st *store.Registry) *Sweeper {
	return &Sweeper{root: root, ttl: ttl, store: st}
}

// Sweep deletes every client directory whose last modification is older
// than the TTL, along with all registry jobs owned by that client.
func (s *Sweeper) Sweep() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	now := time.Now()
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > s.ttl {
			s.DeleteClient(e.Name())
			telemetry.ClientsSwept.Inc()
		}
	}
}

// DeleteClient removes a client's directory tree and purges its jobs.
// Deletion is best-effort; already-missing files are tolerated.
func (s *Sweeper) DeleteClient(clientID string) {
	if clientID == "" {
		return
	}
	_ = os.RemoveAll(filepath.Join(s.root, clientID))
	s.store.ClearClient(clientID)
}
