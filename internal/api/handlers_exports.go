package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/docblocks/internal/export"
	"github.com/dgallion1/docblocks/internal/pipeline"
	"github.com/dgallion1/docblocks/internal/session"
	"github.com/go-chi/chi/v5"
)

// handleSubmitExport flattens the session now and queues the result for
// rendering. Edits made after this call do not reach the export.
func (s *Server) handleSubmitExport(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	if e == nil {
		return
	}

	var meta export.Metadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := export.ForFormat(meta.Format); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	name, _ := e.Info()
	if meta.Name == "" {
		meta.Name = name
	}
	if meta.Title == "" {
		meta.Title = name
	}

	var doc string
	e.Do(func(sess *session.Session) { doc = sess.Flatten() })

	job := pipeline.NewJob("", e.ID, doc, meta)
	if err := s.orchestrator.Submit(job); err != nil {
		s.log.Error("failed to queue export", "session_id", e.ID, "error", err)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("export queued", "job_id", job.ID, "session_id", e.ID, "format", meta.Format)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id":   job.ID,
		"status":   string(pipeline.StatusQueued),
		"poll_url": fmt.Sprintf("/api/exports/%s/status", job.ID),
	})
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	data, contentType, filename, ok := job.Result()
	if !ok {
		snap := job.Snapshot()
		if snap.Status == pipeline.StatusFailed {
			jsonError(w, "export failed: "+snap.Error, http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, "export not ready", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleExportStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.orchestrator.Stats().Snapshot(),
	})
}
