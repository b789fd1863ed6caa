/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: source.go
Description: Text sources for the parser. Loads raw text from local files, stdin, HTTP(S)
endpoints or a rendered page, converts HTML tables to delimited text, and deduplicates
identical payloads by SHA256.
*/

package source

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kleascm/datatool/pkg/inference"
	"github.com/spf13/afero"
)

// ErrDuplicate is returned by a Loader for a payload it has already produced
var ErrDuplicate = errors.New("payload already loaded")

// DefaultTimeout bounds a single remote fetch
const DefaultTimeout = 10 * time.Second

// Source produces raw text for the inference engine
type Source interface {
	Name() string
	Load(ctx context.Context) (inference.RawText, error)
}

// Config controls how references are turned into sources
type Config struct {
	Timeout time.Duration     `mapstructure:"timeout" json:"timeout"`
	Headers map[string]string `mapstructure:"headers" json:"headers"`
	Render  bool              `mapstructure:"render" json:"render"` // fetch URLs through headless Chrome
	Fs      afero.Fs          `mapstructure:"-" json:"-"`
	Stdin   io.Reader         `mapstructure:"-" json:"-"`
}

// Open picks a source for ref: "-" is stdin, http(s) URLs are fetched, anything else is a path
func Open(ref string, cfg Config) Source {
	switch {
	case ref == "-":
		in := cfg.Stdin
		if in == nil {
			in = os.Stdin
		}
		return NewStdinSource(in)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		if cfg.Render {
			return NewBrowserSource(ref, cfg.Timeout, cfg.Headers)
		}
		return NewHTTPSource(ref, cfg.Timeout, cfg.Headers)
	default:
		fs := cfg.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		return NewFileSource(fs, ref)
	}
}

// FileSource reads a file from an afero filesystem
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource creates a new FileSource
func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

func (s *FileSource) Name() string { return s.path }

// Load reads the whole file. HTML files are reduced to their first table.
func (s *FileSource) Load(ctx context.Context) (inference.RawText, error) {
	if err := ctx.Err(); err != nil {
		return inference.RawText{}, err
	}
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return inference.RawText{}, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return toRawText(data, "", filepath.Base(s.path))
}

// StdinSource reads everything from a reader, normally os.Stdin
type StdinSource struct {
	r io.Reader
}

// NewStdinSource creates a new StdinSource
func NewStdinSource(r io.Reader) *StdinSource {
	return &StdinSource{r: r}
}

func (s *StdinSource) Name() string { return "stdin" }

// Load reads until EOF
func (s *StdinSource) Load(ctx context.Context) (inference.RawText, error) {
	if err := ctx.Err(); err != nil {
		return inference.RawText{}, err
	}
	data, err := io.ReadAll(s.r)
	if err != nil {
		return inference.RawText{}, fmt.Errorf("failed to read stdin: %w", err)
	}
	return toRawText(data, "", "")
}

// HTTPSource fetches a document over HTTP(S)
type HTTPSource struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
	client  *http.Client
}

// NewHTTPSource creates a new HTTPSource
func NewHTTPSource(url string, timeout time.Duration, headers map[string]string) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSource{
		URL:     url,
		Timeout: timeout,
		Headers: headers,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return s.URL }

// Load performs a GET request and returns the body as text
func (s *HTTPSource) Load(ctx context.Context) (inference.RawText, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return inference.RawText{}, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return inference.RawText{}, fmt.Errorf("failed to fetch %s: %w", s.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return inference.RawText{}, fmt.Errorf("%s returned status %d", s.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return inference.RawText{}, fmt.Errorf("failed to read body: %w", err)
	}
	return toRawText(data, resp.Header.Get("Content-Type"), sourceID(s.URL))
}

// toRawText wraps a payload, reducing HTML to the text of its first table
func toRawText(data []byte, contentType, id string) (inference.RawText, error) {
	text := string(data)
	if isHTML(text, contentType) {
		table, err := ExtractHTMLTable(strings.NewReader(text))
		if err != nil {
			return inference.RawText{}, err
		}
		text = table
	}
	return inference.RawText{Text: text, Source: id}, nil
}

func isHTML(text, contentType string) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// sourceID trims a URL to its last path element for use as a fallback title
func sourceID(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.Index(trimmed, "?"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Loader loads sources and skips payloads it has already seen
type Loader struct {
	seen map[[sha256.Size]byte]string
	mu   sync.Mutex
}

// NewLoader creates a new Loader
func NewLoader() *Loader {
	return &Loader{seen: make(map[[sha256.Size]byte]string)}
}

// Load loads src and returns ErrDuplicate when the same text was loaded before
func (l *Loader) Load(ctx context.Context, src Source) (inference.RawText, error) {
	raw, err := src.Load(ctx)
	if err != nil {
		return inference.RawText{}, err
	}
	if first, ok := l.isUnique(raw.Text, src.Name()); !ok {
		return inference.RawText{}, fmt.Errorf("%s: %w (first seen in %s)", src.Name(), ErrDuplicate, first)
	}
	return raw, nil
}

// isUnique records the payload hash and reports the source that first produced it
func (l *Loader) isUnique(text, name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hash := sha256.Sum256([]byte(text))
	if first, exists := l.seen[hash]; exists {
		return first, false
	}
	l.seen[hash] = name
	return name, true
}
