package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MaxDocumentBytes bounds a fetched document.
const MaxDocumentBytes = 64 << 20

// FetchError means the source document could not be retrieved. Callers may
// retry the whole operation.
type FetchError struct {
	Locator    string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	loc := redact(e.Locator)
	switch {
	case e.StatusCode != 0 && e.Cause != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", loc, e.StatusCode, e.Cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d", loc, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", loc, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// redact drops the query string, which carries presigned credentials.
func redact(locator string) string {
	if i := strings.IndexByte(locator, '?'); i >= 0 {
		return locator[:i] + "?..."
	}
	return locator
}

// Fetcher resolves a locator to document bytes.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, locator string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, locator string) ([]byte, error) {
	return f(ctx, locator)
}

// HTTPFetcher downloads http(s) locators such as presigned URLs.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPFetcher{client: &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, &FetchError{Locator: locator, Cause: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Locator: locator, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var cause error
		if len(body) > 0 {
			cause = errors.New(strings.TrimSpace(string(body)))
		}
		return nil, &FetchError{Locator: locator, StatusCode: resp.StatusCode, Cause: cause}
	}
	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, &FetchError{Locator: locator, Cause: err}
	}
	return data, nil
}

// ObjectFetcher reads object keys from a Storage.
type ObjectFetcher struct {
	Store Storage
}

func (f *ObjectFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	rc, _, err := f.Store.Get(ctx, key)
	if err != nil {
		fe := &FetchError{Locator: key, Cause: err}
		if errors.Is(err, ErrNotFound) {
			fe.StatusCode = http.StatusNotFound
		}
		return nil, fe
	}
	defer rc.Close()
	data, err := readLimited(rc)
	if err != nil {
		return nil, &FetchError{Locator: key, Cause: err}
	}
	return data, nil
}

// LocatorFetcher dispatches on the locator's form:
//
//	http://..., https://...   HTTP
//	s3://bucket/key           object store (bucket part ignored)
//	file:///path, local path  local disk, only when AllowLocal is set
//	anything else             object key
type LocatorFetcher struct {
	HTTP       Fetcher
	Objects    Fetcher
	AllowLocal bool
}

func (f *LocatorFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	switch {
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		if f.HTTP == nil {
			return nil, &FetchError{Locator: locator, Cause: errors.New("http locators are not enabled")}
		}
		return f.HTTP.Fetch(ctx, locator)
	case strings.HasPrefix(locator, "s3://"):
		u, err := url.Parse(locator)
		if err != nil {
			return nil, &FetchError{Locator: locator, Cause: err}
		}
		return f.objects(ctx, strings.TrimPrefix(u.Path, "/"))
	case strings.HasPrefix(locator, "file://"):
		return f.local(strings.TrimPrefix(locator, "file://"))
	case f.AllowLocal && isLocalPath(locator):
		return f.local(locator)
	}
	return f.objects(ctx, locator)
}

func (f *LocatorFetcher) objects(ctx context.Context, key string) ([]byte, error) {
	if f.Objects == nil {
		return nil, &FetchError{Locator: key, Cause: errors.New("object store is not configured")}
	}
	return f.Objects.Fetch(ctx, key)
}

func (f *LocatorFetcher) local(path string) ([]byte, error) {
	if !f.AllowLocal {
		return nil, &FetchError{Locator: path, Cause: errors.New("local paths are not allowed")}
	}
	data, err := ReadLocal(path)
	if err != nil {
		return nil, &FetchError{Locator: path, Cause: err}
	}
	return data, nil
}

func isLocalPath(s string) bool {
	if filepath.IsAbs(s) || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") {
		return true
	}
	_, err := os.Stat(s)
	return err == nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", MaxDocumentBytes)
	}
	return data, nil
}
