package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/doctailor/internal/parser"
	"github.com/dgallion1/doctailor/internal/pipeline"
	"github.com/dgallion1/doctailor/internal/storage"
)

// handleUploadMaster replaces the user's master resume.
func (s *Server) handleUploadMaster(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("resume")
	if err != nil {
		jsonError(w, "resume is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s (only .docx)", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	// Reject what the pipeline could not read later.
	snap, err := parser.Extract(data)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	store := s.orchestrator.Storage()
	prefix := pipeline.MasterPrefix(userID)
	old, err := store.List(ctx, prefix)
	if err != nil {
		jsonError(w, "failed to list master resume: "+err.Error(), http.StatusInternalServerError)
		return
	}
	for _, obj := range old {
		if err := store.Delete(ctx, obj.Key); err != nil {
			jsonError(w, "failed to replace master resume: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	key := prefix + filename
	_, err = store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: storage.DocxContentType,
		Metadata:    map[string]string{"sha256": pipeline.ContentHashHex(data)},
	})
	if err != nil {
		jsonError(w, "failed to store master resume: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.log.Info("master resume uploaded", "user_id", userID, "key", key, "replaced", len(old), "paragraphs", len(snap.Paragraphs))
	writeJSON(w, http.StatusCreated, map[string]any{
		"file_name":  filename,
		"key":        key,
		"paragraphs": len(snap.Paragraphs),
		"sections":   len(snap.Sections),
	})
}

// handleGetMaster returns a download URL for the user's master resume.
func (s *Server) handleGetMaster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := s.orchestrator.Storage()

	key, err := pipeline.MasterResumeKey(ctx, store, UserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	url, err := store.PresignGet(ctx, key, s.orchestrator.PresignExpiry())
	if err != nil {
		jsonError(w, "failed to presign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"file_name":  path.Base(key),
		"url":        url,
		"expires_at": time.Now().Add(s.orchestrator.PresignExpiry()).UTC(),
	})
}

// tailoredResume is one entry of the tailored resume listing.
type tailoredResume struct {
	FileName     string    `json:"file_name"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url"`
}

// handleListTailored lists the user's tailored resumes with download URLs.
func (s *Server) handleListTailored(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)
	store := s.orchestrator.Storage()

	objs, err := store.List(ctx, userID+"/")
	if err != nil {
		jsonError(w, "failed to list resumes: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resumes := []tailoredResume{}
	master := pipeline.MasterPrefix(userID)
	for _, obj := range objs {
		if strings.HasPrefix(obj.Key, master) {
			continue
		}
		url, err := store.PresignGet(ctx, obj.Key, s.orchestrator.PresignExpiry())
		if err != nil {
			jsonError(w, "failed to presign: "+err.Error(), http.StatusInternalServerError)
			return
		}
		resumes = append(resumes, tailoredResume{
			FileName:     path.Base(obj.Key),
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			URL:          url,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"resumes": resumes})
}

// handleDeleteTailored deletes one tailored resume, named by ?key=.
func (s *Server) handleDeleteTailored(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)

	key := r.URL.Query().Get("key")
	if key == "" {
		jsonError(w, "key query parameter is required", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(key, userID+"/") || strings.HasPrefix(key, pipeline.MasterPrefix(userID)) || strings.Contains(key, "..") {
		jsonError(w, "key does not name a tailored resume of this user", http.StatusBadRequest)
		return
	}

	if err := s.orchestrator.Storage().Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonError(w, "resume not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.log.Info("tailored resume deleted", "user_id", userID, "key", key)
	w.WriteHeader(http.StatusNoContent)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
