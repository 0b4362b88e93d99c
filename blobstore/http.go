package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPStore implements a read-only Store over an HTTP(S) origin serving
// published scene files. Blob names are resolved relative to the base URL.
//
// Open issues a single HEAD request to learn the blob size; reads issue
// Range GETs. Requests are attempted exactly once: a non-2xx status is
// surfaced as a *TransportError and never retried here. Retry policy, if
// any, belongs to the http.Client's transport.
type HTTPStore struct {
	base   *url.URL
	client *http.Client
}

// HTTPStoreOptions configures an HTTPStore.
type HTTPStoreOptions struct {
	// Client is the HTTP client used for all requests.
	// Defaults to http.DefaultClient.
	Client *http.Client
}

// NewHTTPStore creates a read-only store rooted at baseURL.
func NewHTTPStore(baseURL string, optFns ...func(o *HTTPStoreOptions)) (*HTTPStore, error) {
	opts := HTTPStoreOptions{
		Client: http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("blobstore: invalid base URL %q: %w", baseURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return &HTTPStore{base: base, client: opts.Client}, nil
}

// URL resolves a blob name against the store's base URL.
func (s *HTTPStore) URL(name string) string {
	ref := &url.URL{Path: name}
	return s.base.ResolveReference(ref).String()
}

// Open issues a HEAD request to verify existence and learn the size.
func (s *HTTPStore) Open(ctx context.Context, name string) (Blob, error) {
	u := s.URL(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blobstore: HEAD %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{URL: u, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if resp.ContentLength < 0 {
		return nil, fmt.Errorf("blobstore: origin did not report a length for %s", u)
	}

	return &httpBlob{
		client: s.client,
		url:    u,
		size:   resp.ContentLength,
	}, nil
}

// Create is not supported; the HTTP store is read-only.
func (s *HTTPStore) Create(context.Context, string) (WritableBlob, error) {
	return nil, ErrReadOnly
}

// Put is not supported; the HTTP store is read-only.
func (s *HTTPStore) Put(context.Context, string, []byte) error {
	return ErrReadOnly
}

// Delete is not supported; the HTTP store is read-only.
func (s *HTTPStore) Delete(context.Context, string) error {
	return ErrReadOnly
}

// List is not supported; HTTP origins have no listing protocol.
func (s *HTTPStore) List(context.Context, string) ([]string, error) {
	return nil, ErrReadOnly
}

// httpBlob reads a remote blob via Range GETs.
type httpBlob struct {
	client *http.Client
	url    string
	size   int64
}

func (b *httpBlob) Size() int64 {
	return b.size
}

func (b *httpBlob) Close() error {
	return nil
}

func (b *httpBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	body, err := b.get(ctx, off, end)
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	n, err := io.ReadFull(body, p[:end-off+1])
	if err != nil {
		return n, err
	}
	if int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}

func (b *httpBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.size {
		return nil, io.EOF
	}
	end := off + length - 1
	if end >= b.size {
		end = b.size - 1
	}
	return b.get(ctx, off, end)
}

// get issues a single Range GET for [off, end] inclusive.
func (b *httpBlob) get(ctx context.Context, off, end int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blobstore: GET %s: %w", b.url, err)
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		return resp.Body, nil
	case http.StatusOK:
		// Origin ignored the Range header and served the whole blob.
		// Discard the prefix so callers still see the requested window.
		if off > 0 {
			if _, err := io.CopyN(io.Discard, resp.Body, off); err != nil {
				_ = resp.Body.Close()
				return nil, err
			}
		}
		return &limitedReadCloser{r: io.LimitReader(resp.Body, end-off+1), c: resp.Body}, nil
	case http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, b.url)
	default:
		_ = resp.Body.Close()
		return nil, &TransportError{URL: b.url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
}

type limitedReadCloser struct {
	r io.Reader
	c io.Closer
}

func (l *limitedReadCloser) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *limitedReadCloser) Close() error               { return l.c.Close() }
