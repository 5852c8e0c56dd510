package imagesource

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"glimpse/internal/logging"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBytes     = 20 << 20 // hard ceiling on source bytes read
)

// ErrNotAbsolute marks a bare filesystem path that is not absolute.
// The tool layer reports it as an invalid-parameters failure.
var ErrNotAbsolute = errors.New("image path must be absolute")

// ErrUnsupportedScheme marks a source reference whose scheme is not handled.
var ErrUnsupportedScheme = errors.New("unsupported image source scheme")

// Image is the raw bytes of one image source plus its MIME type.
type Image struct {
	Data []byte
	MIME string
}

// Loader resolves tool-call image references into raw bytes. Supported
// forms: data URI, file:// URL, absolute filesystem path, http(s) URL.
type Loader struct {
	httpClient *http.Client
	normalizer Normalizer
	maxBytes   int64
	logger     *slog.Logger
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient overrides the fetch client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// WithNormalizer overrides the image normalizer.
func WithNormalizer(n Normalizer) LoaderOption {
	return func(l *Loader) {
		if n != nil {
			l.normalizer = n
		}
	}
}

// WithMaxBytes overrides the source size ceiling.
func WithMaxBytes(limit int64) LoaderOption {
	return func(l *Loader) {
		if limit > 0 {
			l.maxBytes = limit
		}
	}
}

// NewLoader constructs a loader with the default fetch timeout and size cap.
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		normalizer: PassthroughNormalizer{MaxBytes: defaultMaxBytes},
		maxBytes:   defaultMaxBytes,
		logger:     logging.NewComponentLogger(logger, "imagesource"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves ref into image bytes, runs them through the normalizer, and
// returns the result. Data URIs are decoded in-process with no network or
// filesystem access.
func (l *Loader) Load(ctx context.Context, ref string) (Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Image{}, errors.New("image source is empty")
	}

	var img Image
	var err error
	switch {
	case strings.HasPrefix(ref, "data:"):
		img, err = decodeDataURI(ref)
	case strings.HasPrefix(ref, "file://"):
		img, err = l.loadFile(strings.TrimPrefix(ref, "file://"))
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		img, err = l.fetch(ctx, ref)
	case strings.Contains(ref, "://"):
		err = fmt.Errorf("%w: %s", ErrUnsupportedScheme, ref[:strings.Index(ref, "://")])
	default:
		img, err = l.loadFile(ref)
	}
	if err != nil {
		return Image{}, err
	}
	return l.normalizer.Normalize(ctx, img)
}

func (l *Loader) loadFile(path string) (Image, error) {
	if !filepath.IsAbs(path) {
		return Image{}, fmt.Errorf("%w: %s", ErrNotAbsolute, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image file: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return Image{}, fmt.Errorf("image file exceeds %d byte limit", l.maxBytes)
	}
	return Image{Data: data, MIME: sniffMIME(path, data)}, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build image request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("fetch image: http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read image response: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return Image{}, fmt.Errorf("image exceeds %d byte limit", l.maxBytes)
	}

	mimeType := resp.Header.Get("Content-Type")
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = sniffMIME(url, data)
	}
	return Image{Data: data, MIME: mimeType}, nil
}

// decodeDataURI extracts the MIME type and base64 payload from a data URI.
// The payload is returned byte-for-byte.
func decodeDataURI(uri string) (Image, error) {
	rest := strings.TrimPrefix(uri, "data:")
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return Image{}, errors.New("malformed data URI: missing payload separator")
	}
	meta, payload := rest[:comma], rest[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return Image{}, errors.New("data URI must be base64-encoded")
	}
	mimeType := strings.TrimSuffix(meta, ";base64")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode data URI payload: %w", err)
	}
	return Image{Data: data, MIME: mimeType}, nil
}

// DataURI assembles the base64 data URI form the upstream API consumes.
func DataURI(img Image) string {
	mimeType := img.MIME
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// sniffMIME resolves a MIME type from the path extension, falling back to
// content sniffing.
func sniffMIME(path string, data []byte) string {
	if ext := filepath.Ext(path); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return http.DetectContentType(data)
}
