package reportstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const maxDocumentBytes = 256 << 20

// Fetcher retrieves a raw document by its slash-separated relative path.
// Implementations report failures as *LoadError.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

type HTTPFetcher struct {
	BaseURL *url.URL
	Client  *http.Client
}

func NewHTTPFetcher(base string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return nil, fmt.Errorf("parse report source URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("report source URL must be http or https, got %q", base)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{BaseURL: u, Client: client}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	target := f.BaseURL.JoinPath(strings.Split(path, "/")...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &LoadError{Kind: HTTPError, Path: path, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &LoadError{Kind: HTTPError, Path: path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &LoadError{Kind: NotFound, Path: path, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &LoadError{Kind: HTTPError, Path: path, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, &LoadError{Kind: HTTPError, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

type DirFetcher struct {
	FS fs.FS
}

func NewDirFetcher(dir string) (*DirFetcher, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat report directory: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("report source %q is not a directory", dir)
	}
	return &DirFetcher{FS: os.DirFS(dir)}, nil
}

func (f *DirFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(path) {
		return nil, &LoadError{Kind: NotFound, Path: path, Err: fs.ErrInvalid}
	}
	data, err := fs.ReadFile(f.FS, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Kind: NotFound, Path: path}
		}
		return nil, &LoadError{Kind: HTTPError, Path: path, Err: err}
	}
	return data, nil
}

// NewFetcher picks an HTTP fetcher for http(s) sources and a directory
// fetcher for anything else.
func NewFetcher(source string, client *http.Client) (Fetcher, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("report source is required")
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewHTTPFetcher(source, client)
	}
	return NewDirFetcher(source)
}
