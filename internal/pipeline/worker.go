package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgallion1/doctailor/internal/storage"
)

// ErrNoMasterResume is returned when a user has not uploaded a master resume.
var ErrNoMasterResume = errors.New("no master resume found")

// Worker processes a single tailoring job.
type Worker struct {
	store  storage.Storage
	tailor Tailor
	log    *slog.Logger

	scratchDir    string
	presignExpiry time.Duration
}

func NewWorker(store storage.Storage, tailor Tailor, log *slog.Logger, scratchDir string, presignExpiry time.Duration) *Worker {
	return &Worker{
		store:         store,
		tailor:        tailor,
		log:           log,
		scratchDir:    scratchDir,
		presignExpiry: presignExpiry,
	}
}

// Process runs one job end to end: locate the master resume, tailor it into
// a scratch file, upload the result and hand out a download URL.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "user_id", job.UserID)

	// Phase 1: Locate the master resume.
	job.SetStatus(StatusFetching, "locating master resume")
	source, err := MasterResumeURL(ctx, w.store, job.UserID, w.presignExpiry)
	if err != nil {
		log.Error("master resume unavailable", "error", err)
		job.Fail("fetching", err)
		return
	}

	// Phase 2: Tailor into a scratch file no other job can share.
	job.SetStatus(StatusTailoring, "tailoring")
	fileName := TailoredFileName(job.JobTitle)
	scratch := storage.ScratchPath(w.scratchDir, fileName)
	defer RemoveQuietly(log, scratch)

	t := w.tailor
	t.Logger = log
	t.Progress = job.SetChunkProgress
	if _, err := t.Produce(ctx, source, job.JobTitle, job.JobDescription(), scratch); err != nil {
		log.Error("tailoring failed", "kind", ErrorKind(err), "error", err)
		job.Fail("tailoring", err)
		return
	}

	// Phase 3: Upload and presign.
	job.SetStatus(StatusUploading, "uploading")
	key := ResultKey(job.UserID, fileName)
	if err := w.upload(ctx, scratch, key, job.ID); err != nil {
		log.Error("upload failed", "key", key, "error", err)
		job.Fail("uploading", err)
		return
	}
	url, err := w.store.PresignGet(ctx, key, w.presignExpiry)
	if err != nil {
		log.Error("presign failed", "key", key, "error", err)
		job.Fail("uploading", err)
		return
	}

	job.Complete(fileName, key, url)
	log.Info("tailoring complete", "key", key)
}

func (w *Worker) upload(ctx context.Context, path, key, jobID string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open result: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat result: %w", err)
	}
	_, err = w.store.Put(ctx, key, f, storage.PutObjectOptions{
		Size:        st.Size(),
		ContentType: storage.DocxContentType,
		Metadata:    map[string]string{"job-id": jobID},
	})
	return err
}

// MasterResumeKey returns the key of the user's master resume.
func MasterResumeKey(ctx context.Context, store storage.Storage, userID string) (string, error) {
	objs, err := store.List(ctx, MasterPrefix(userID))
	if err != nil {
		return "", fmt.Errorf("list master resume: %w", err)
	}
	if len(objs) == 0 {
		return "", ErrNoMasterResume
	}
	return objs[0].Key, nil
}

// MasterResumeURL returns a presigned download URL for the user's master
// resume.
func MasterResumeURL(ctx context.Context, store storage.Storage, userID string, expiry time.Duration) (string, error) {
	key, err := MasterResumeKey(ctx, store, userID)
	if err != nil {
		return "", err
	}
	url, err := store.PresignGet(ctx, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign master resume: %w", err)
	}
	return url, nil
}
