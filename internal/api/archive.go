package api

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PravakarDas/YT-Playlist-Downloader/internal/ytdlp"
)

// handleArchive bundles every finished file of a job into a zip and serves
// it as an attachment. The archive is rebuilt on every request; downloads
// still in flight simply are not in it yet.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	clientID := clientIDFromRequest(r)
	if clientID == "" {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	jobID := chi.URLParam(r, "jobID")
	files, ok := s.store.Files(jobID, clientID)
	if !ok || len(files) == 0 {
		http.NotFound(w, r)
		return
	}

	clientDir := filepath.Join(s.cfg.DownloadRoot, clientID)
	if err := os.MkdirAll(clientDir, 0o755); err != nil {
		http.Error(w, "failed to prepare archive", http.StatusInternalServerError)
		return
	}

	archivePath := filepath.Join(clientDir, jobID+".zip")
	if err := writeArchive(archivePath, s.cfg.DownloadRoot, files); err != nil {
		http.Error(w, "failed to build archive", http.StatusInternalServerError)
		return
	}

	name := jobID
	if view, ok := s.store.Snapshot(jobID, clientID); ok && view.PlaylistTitle != "" {
		name = ytdlp.Sanitize(view.PlaylistTitle)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".zip"))
	http.ServeFile(w, r, archivePath)
}

// writeArchive creates (or overwrites) a zip of the given root-relative
// files. The leading client-directory segment is stripped from archive
// entry names. Files that vanished since the job finished are skipped.
func writeArchive(dst, root string, files []string) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, rel := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}

		arcname := rel
		if i := strings.Index(rel, "/"); i >= 0 {
			arcname = rel[i+1:]
		}
		entry, err := zw.Create(arcname)
		if err != nil {
			zw.Close()
			return fmt.Errorf("create archive entry %s: %w", arcname, err)
		}
		src, err := os.Open(full)
		if err != nil {
			continue
		}
		_, copyErr := io.Copy(entry, src)
		src.Close()
		if copyErr != nil {
			zw.Close()
			return fmt.Errorf("write archive entry %s: %w", arcname, copyErr)
		}
	}
	return zw.Close()
}
