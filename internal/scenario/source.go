package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// ErrUnavailable marks a scenario set that could not be loaded. Callers show
// a distinct unavailable state and do not retry on their own.
var ErrUnavailable = errors.New("scenario unavailable")

type Source interface {
	Load(ctx context.Context) (*Set, error)
}

type FileSource struct {
	Path string
}

func (f FileSource) Load(ctx context.Context) (*Set, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w: %w", f.Path, ErrUnavailable, err)
	}
	return decodeSet(f.Path, data)
}

type HTTPSource struct {
	URL    string
	Client *http.Client
	Now    func() time.Time
}

func (h HTTPSource) Load(ctx context.Context) (*Set, error) {
	target, err := h.requestURL()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w: %w", h.URL, ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w: %w", h.URL, ErrUnavailable, err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w: %w", h.URL, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("loading %s: %w: status %d", h.URL, ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w: %w", h.URL, ErrUnavailable, err)
	}
	return decodeSet(h.URL, data)
}

// requestURL appends a timestamp so intermediaries never serve a stale copy.
func (h HTTPSource) requestURL() (string, error) {
	parsed, err := url.Parse(h.URL)
	if err != nil {
		return "", err
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	query := parsed.Query()
	query.Set("ts", strconv.FormatInt(now().UnixMilli(), 10))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// StaticSource serves an already decoded scene list.
type StaticSource []Scene

func (s StaticSource) Load(ctx context.Context) (*Set, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("static source: %w: no scenes", ErrUnavailable)
	}
	return NewSet(s), nil
}

func decodeSet(origin string, data []byte) (*Set, error) {
	scenes, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w: %w", origin, ErrUnavailable, err)
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("loading %s: %w: no scenes", origin, ErrUnavailable)
	}
	return NewSet(scenes), nil
}
