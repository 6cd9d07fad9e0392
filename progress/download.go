package progress

import (
	"context"
	"os"
	"path/filepath"

	"github.com/MilitaerMilitz/2D-Kailexcraft/downloads"
)

// Fetcher writes the resource behind a URL into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, destPath string, rawURL string) error
}

// Download fetches a URL into a file. Progress is the size of the
// partially written destination.
type Download struct {
	*runner
	URL  string
	Dest string
}

// NewDownload validates its arguments and returns an unstarted task.
// size is the expected byte count, or -1 when unknown.
func NewDownload(fetcher Fetcher, rawURL, dest string, size int64) (*Download, error) {
	const op = "download"

	if _, err := downloads.ParseURL(rawURL); err != nil {
		return nil, invalidArg(op, rawURL, "%v", err)
	}
	if info, err := os.Stat(dest); err == nil {
		if info.IsDir() {
			return nil, invalidArg(op, dest, "destination is a directory")
		}
		if info.Size() > 0 {
			return nil, invalidArg(op, dest, "destination is not empty")
		}
	} else if !os.IsNotExist(err) {
		return nil, ioFailure(op, dest, err)
	}
	if info, err := os.Stat(filepath.Dir(dest)); err != nil || !info.IsDir() {
		return nil, invalidArg(op, dest, "parent directory does not exist")
	}

	d := &Download{URL: rawURL, Dest: dest}
	d.runner = newRunner(op, dest, size, func(ctx context.Context) error {
		return fetcher.Fetch(ctx, dest, rawURL)
	}, d.processedSize)
	return d, nil
}

func (d *Download) processedSize() int64 {
	info, err := os.Stat(d.Dest)
	if err != nil {
		return -1
	}
	return info.Size()
}
