package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// DefaultMaxPayload caps a fetched dataset at 256 MiB.
const DefaultMaxPayload int64 = 256 << 20

// ErrPayloadTooLarge is wrapped in the TransportError of an oversized
// response.
var ErrPayloadTooLarge = errors.New("payload exceeds size limit")

// Source fetches the raw payload of a dataset by name.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// TransportError reports a dataset that could not be fetched. StatusCode is
// zero when no HTTP response was received.
type TransportError struct {
	Name       string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s: HTTP %d", e.Name, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Name, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// HTTPSource serves datasets from <BaseURL>/<subDir>/<name>.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client

	// MaxBytes limits the response body; zero or less means
	// DefaultMaxPayload
	MaxBytes int64
}

// NewHTTPSource creates a source with its own client. A zero timeout means
// no client-side limit.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		BaseURL:  baseURL,
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: DefaultMaxPayload,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	u, err := url.JoinPath(s.BaseURL, SubDir(name), name)
	if err != nil {
		return nil, &TransportError{Name: name, URL: s.BaseURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Name: name, URL: u, Err: err}
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Name: name, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Name: name, URL: u, StatusCode: resp.StatusCode}
	}
	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxPayload
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &TransportError{Name: name, URL: u, Err: err}
	}
	if int64(len(body)) > limit {
		return nil, &TransportError{Name: name, URL: u, Err: fmt.Errorf("%w (%d bytes)", ErrPayloadTooLarge, limit)}
	}
	return body, nil
}

// DirSource serves datasets from a local asset tree laid out like the HTTP
// one.
type DirSource struct {
	Root string
}

func (s DirSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(s.Root, filepath.FromSlash(Path(name)))
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &TransportError{Name: name, URL: p, Err: err}
	}
	return data, nil
}
