package progress

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/MilitaerMilitz/2D-Kailexcraft/downloads"
	"github.com/MilitaerMilitz/2D-Kailexcraft/fsutil"
)

// Extract unpacks an archive into an existing directory. Progress is the
// summed size of the archive's first-level entries already present below
// the destination.
type Extract struct {
	*runner
	Archive string
	Dest    string
	entries []string
}

func NewExtract(archive, dest string) (*Extract, error) {
	const op = "extract"

	if info, err := os.Stat(dest); err != nil || !info.IsDir() {
		return nil, invalidArg(op, dest, "destination is not an existing directory")
	}
	if _, err := downloads.DetectFormat(archive); err != nil {
		return nil, invalidArg(op, archive, "%v", err)
	}
	info, err := os.Stat(archive)
	if err != nil {
		return nil, ioFailure(op, archive, err)
	}
	entries, err := downloads.FirstLevelEntries(archive)
	if err != nil {
		return nil, ioFailure(op, archive, err)
	}

	e := &Extract{Archive: archive, Dest: dest, entries: entries}
	e.runner = newRunner(op, archive, info.Size(), func(ctx context.Context) error {
		err := downloads.ExtractArchive(ctx, archive, dest)
		if errors.Is(err, downloads.ErrUnsafePath) {
			return &OpError{Kind: ErrInvalidArgument, Op: op, Path: archive, Err: err}
		}
		return err
	}, e.processedSize)
	return e, nil
}

func (e *Extract) processedSize() int64 {
	size, err := fsutil.SizeOfEntries(e.Dest, e.entries)
	if err != nil {
		log.Printf("progress: failed to measure %s: %v", e.Dest, err)
		return -1
	}
	return size
}
