package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/doctailor/internal/pipeline"
	"github.com/dgallion1/doctailor/internal/rewrite"
)

// Job descriptions are bounded by validation; this only caps the body.
const maxTailorBody = 1 << 20

func (s *Server) handleTailor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxTailorBody)
	var job rewrite.JobContext
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	job = rewrite.NormalizeJob(job)
	if err := job.Validate(); err != nil {
		writeError(w, err)
		return
	}

	// Fail fast instead of queueing a job that cannot run.
	if _, err := pipeline.MasterResumeKey(ctx, s.orchestrator.Storage(), userID); err != nil {
		writeError(w, err)
		return
	}

	j := pipeline.NewJob(userID, job.JobTitle, job.JobDescription)
	if err := s.orchestrator.Submit(j); err != nil {
		if errors.Is(err, pipeline.ErrQueueFull) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":    j.ID,
		"status":    j.Snapshot().Status,
		"file_name": pipeline.TailoredFileName(job.JobTitle),
		"poll_url":  fmt.Sprintf("/api/resumes/tailor/%s/status", j.ID),
	})
}

func (s *Server) handleTailorStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	// Other users' jobs are reported as missing.
	if job == nil || job.UserID != UserID(r.Context()) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	resp := map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	}
	if snap.Status == pipeline.StatusCompleted {
		resp["file_name"] = snap.FileName
		resp["key"] = snap.ResultKey
		resp["url"] = snap.ResultURL
	}
	if snap.Status == pipeline.StatusFailed {
		resp["error_kind"] = snap.ErrorKind
		resp["error_status"] = statusForKind(snap.ErrorKind)
	}
	writeJSON(w, http.StatusOK, resp)
}
