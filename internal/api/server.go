package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PravakarDas/YT-Playlist-Downloader/internal/config"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/lifecycle"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/models"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/store"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/telemetry"
	"github.com/PravakarDas/YT-Playlist-Downloader/internal/worker"
)

//go:embed index.html
var indexPage []byte

// Inspector resolves playlist metadata without downloading.
type Inspector interface {
	Inspect(ctx context.Context, url string) (*models.PlaylistInfo, error)
}

// Server wires HTTP handlers for the download service.
type Server struct {
	cfg       config.Config
	store     *store.Registry
	runner    *worker.Runner
	inspector Inspector
	sweeper   *lifecycle.Sweeper
}

// New constructs the API server.
func New(cfg config.Config, st *store.Registry, runner *worker.Runner, inspector Inspector, sweeper *lifecycle.Sweeper) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		runner:    runner,
		inspector: inspector,
		sweeper:   sweeper,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/metrics", telemetry.Handler())

	r.Get("/", s.handleIndex)
	r.Post("/api/playlist-info", s.handlePlaylistInfo)
	r.Post("/download", s.handleDownload)
	r.Get("/progress/{jobID}", s.handleProgress)
	r.Get("/download-archive/{jobID}", s.handleArchive)
	return r
}

// handleIndex serves the page and rotates the session: any previous
// session's data becomes unreachable once the cookie changes, so it is
// deleted eagerly instead of waiting for the TTL sweep.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.sweeper.Sweep()

	if old := clientIDFromRequest(r); old != "" {
		s.sweeper.DeleteClient(old)
	}

	clientID, err := newClientID()
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, clientID, s.cfg.ClientTTL)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

type playlistInfoRequest struct {
	URL string `json:"url"`
}

func (s *Server) handlePlaylistInfo(w http.ResponseWriter, r *http.Request) {
	s.sweeper.Sweep()

	var req playlistInfoRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	url := strings.TrimSpace(req.URL)
	if url == "" {
		writeError(w, http.StatusBadRequest, "No URL provided")
		return
	}

	info, err := s.inspector.Inspect(r.Context(), url)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"playlist_title": info.Title,
		"videos":         info.Videos,
	})
}

type downloadRequest struct {
	URL     string          `json:"url"`
	Format  string          `json:"format"`
	Quality string          `json:"quality"`
	Indices json.RawMessage `json:"indices"`
}

var errNoSelection = errors.New("no videos selected")

// parseIndices accepts the selection the way browsers send it: a list of
// numbers or numeric strings. A missing or non-list value is a selection
// error; a non-numeric element an index error.
func parseIndices(raw json.RawMessage) ([]int, error) {
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
		return nil, errNoSelection
	}
	out := make([]int, 0, len(list))
	for _, v := range list {
		switch n := v.(type) {
		case float64:
			out = append(out, int(n))
		case string:
			i, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil {
				return nil, fmt.Errorf("index %q is not a number", n)
			}
			out = append(out, i)
		default:
			return nil, fmt.Errorf("index %v is not a number", v)
		}
	}
	return out, nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.sweeper.Sweep()

	clientID := clientIDFromRequest(r)
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "Missing client id (refresh the page).")
		return
	}

	var req downloadRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	url := strings.TrimSpace(req.URL)
	if url == "" {
		writeError(w, http.StatusBadRequest, "No playlist URL provided")
		return
	}
	indices, err := parseIndices(req.Indices)
	if err != nil {
		msg := "Invalid video indices"
		if errors.Is(err, errNoSelection) {
			msg = "No videos selected"
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	valid := false
	for _, i := range indices {
		if i > 0 {
			valid = true
			break
		}
	}
	if !valid {
		writeError(w, http.StatusBadRequest, "No valid video indices")
		return
	}

	job := s.store.Create(store.CreateJobParams{
		ClientID: clientID,
		URL:      url,
		FileType: req.Format,
		Quality:  req.Quality,
		Indices:  indices,
	})
	s.runner.Launch(job.ID)
	telemetry.JobsCreated.Inc()

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "job_id": job.ID})
}

type progressResponse struct {
	OK bool `json:"ok"`
	models.JobView
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	clientID := clientIDFromRequest(r)
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "Missing client id")
		return
	}

	view, ok := s.store.Snapshot(chi.URLParam(r, "jobID"), clientID)
	if !ok {
		writeError(w, http.StatusNotFound, "Invalid job id")
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{OK: true, JobView: view})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"ok": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
