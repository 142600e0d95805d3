package storage_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/doctailor/internal/storage"
	"github.com/dgallion1/doctailor/internal/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "NoSuchKey", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "docx-bytes")
	}))
	defer srv.Close()

	f := storage.NewHTTPFetcher(0)
	data, err := f.Fetch(context.Background(), srv.URL+"/resume.docx?X-Amz-Signature=secret")
	require.NoError(t, err)
	assert.Equal(t, "docx-bytes", string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing?X-Amz-Signature=secret")
	var fe *storage.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusForbidden, fe.StatusCode)
	assert.NotContains(t, fe.Error(), "secret")
	assert.Contains(t, fe.Error(), "NoSuchKey")
}

func TestHTTPFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := storage.NewHTTPFetcher(0).Fetch(context.Background(), url)
	var fe *storage.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Zero(t, fe.StatusCode)
	assert.NotNil(t, fe.Unwrap())
}

func TestObjectFetcher(t *testing.T) {
	store := new(mocks.MockStorage)
	store.On("Get", mock.Anything, "u1/master_resume/cv.docx").
		Return(io.NopCloser(strings.NewReader("master")), storage.ObjectInfo{}, nil)
	store.On("Get", mock.Anything, "u1/none.docx").
		Return(nil, storage.ObjectInfo{}, fmt.Errorf("u1/none.docx: %w", storage.ErrNotFound))

	f := &storage.ObjectFetcher{Store: store}
	data, err := f.Fetch(context.Background(), "u1/master_resume/cv.docx")
	require.NoError(t, err)
	assert.Equal(t, "master", string(data))

	_, err = f.Fetch(context.Background(), "u1/none.docx")
	var fe *storage.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	store.AssertExpectations(t)
}

func TestLocatorFetcher_Dispatch(t *testing.T) {
	var got []string
	record := func(kind string) storage.Fetcher {
		return storage.FetcherFunc(func(_ context.Context, loc string) ([]byte, error) {
			got = append(got, kind+":"+loc)
			return []byte(kind), nil
		})
	}
	dir := t.TempDir()
	local := filepath.Join(dir, "cv.docx")
	require.NoError(t, os.WriteFile(local, []byte("local"), 0o600))

	f := &storage.LocatorFetcher{HTTP: record("http"), Objects: record("obj"), AllowLocal: true}
	ctx := context.Background()

	for _, loc := range []string{"https://host/x.docx", "s3://resumes/u1/cv.docx", "u1/cv.docx"} {
		_, err := f.Fetch(ctx, loc)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"http:https://host/x.docx", "obj:u1/cv.docx", "obj:u1/cv.docx"}, got)

	data, err := f.Fetch(ctx, local)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))
	data, err = f.Fetch(ctx, "file://"+local)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))

	_, err = f.Fetch(ctx, filepath.Join(dir, "missing.docx"))
	var fe *storage.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestLocatorFetcher_LocalDisallowed(t *testing.T) {
	f := &storage.LocatorFetcher{}
	_, err := f.Fetch(context.Background(), "file:///etc/passwd")
	assert.ErrorContains(t, err, "local paths are not allowed")

	_, err = f.Fetch(context.Background(), "/etc/passwd")
	assert.ErrorContains(t, err, "object store is not configured")
}

func TestWriteLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.docx")

	require.NoError(t, storage.WriteLocal([]byte("v1"), path))
	require.NoError(t, storage.WriteLocal([]byte("v2"), path))
	data, err := storage.ReadLocal(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	err = storage.WriteLocal([]byte("x"), filepath.Join(dir, "no-such-dir", "out.docx"))
	assert.Error(t, err)
}

func TestScratchPath(t *testing.T) {
	a := storage.ScratchPath("/scratch", "../evil/resume.docx")
	b := storage.ScratchPath("/scratch", "resume.docx")
	assert.NotEqual(t, a, b)
	assert.Equal(t, "/scratch", filepath.Dir(a))
	assert.True(t, strings.HasSuffix(a, "-resume.docx"))
}
