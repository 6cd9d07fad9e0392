package downloads

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/MilitaerMilitz/2D-Kailexcraft/fsutil"
)

// ErrInvalidURL is returned for sources that cannot be fetched.
var ErrInvalidURL = errors.New("invalid source url")

// Client fetches pack sources over HTTP(S) or from S3 (s3://bucket/key).
type Client struct {
	HTTP *http.Client
	S3   S3Options
}

// NewClient returns a Client with no overall timeout, since pack archives
// can take minutes to transfer.
func NewClient(s3opts S3Options) *Client {
	return &Client{
		HTTP: &http.Client{Timeout: 0},
		S3:   s3opts,
	}
}

// ParseURL validates a source URL and returns it parsed.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidURL, raw, err)
	}
	switch u.Scheme {
	case "http", "https", "s3":
	default:
		return nil, fmt.Errorf("%w: %s: unsupported scheme %q", ErrInvalidURL, raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %s: missing host", ErrInvalidURL, raw)
	}
	if u.Scheme == "s3" && strings.Trim(u.Path, "/") == "" {
		return nil, fmt.Errorf("%w: %s: missing object key", ErrInvalidURL, raw)
	}
	return u, nil
}

// Fetch downloads rawURL into destPath, truncating whatever is there.
func (c *Client) Fetch(ctx context.Context, destPath string, rawURL string) error {
	u, err := ParseURL(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme == "s3" {
		return c.downloadS3(ctx, destPath, u.Host, strings.TrimPrefix(u.Path, "/"))
	}
	return c.downloadHTTP(ctx, destPath, u.String())
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) downloadHTTP(ctx context.Context, destPath string, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	if _, err := fsutil.CopyContext(ctx, out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// ContentLength returns the size of the remote object, or -1 when the
// source does not report one.
func (c *Client) ContentLength(ctx context.Context, rawURL string) int64 {
	u, err := ParseURL(rawURL)
	if err != nil {
		return -1
	}
	if u.Scheme == "s3" {
		return c.s3ContentLength(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return -1
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return -1
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return -1
	}
	return resp.ContentLength
}

// RemoteFileName returns the file name the source advertises, taken from
// Content-Disposition for HTTP and from the object key for S3. It returns
// "" when no name is available.
func (c *Client) RemoteFileName(ctx context.Context, rawURL string) string {
	u, err := ParseURL(rawURL)
	if err != nil {
		return ""
	}
	if u.Scheme == "s3" {
		return path.Base(u.Path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return ""
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return ""
	}
	resp.Body.Close()

	return fileNameFromDisposition(resp.Header.Get("Content-Disposition"))
}

func fileNameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := path.Base(strings.ReplaceAll(params["filename"], "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// FormatBytes formats bytes as human-readable size.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < 0 {
		return "unknown"
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
