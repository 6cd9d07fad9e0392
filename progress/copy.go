package progress

import (
	"context"
	"log"
	"os"

	"github.com/MilitaerMilitz/2D-Kailexcraft/fsutil"
)

// Copy copies the content of one directory into another. Progress is the
// summed size of the source's first-level entries already present below
// the destination.
type Copy struct {
	*runner
	Src     string
	Dest    string
	entries []string
}

func NewCopy(src, dest string) (*Copy, error) {
	const op = "copy"

	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return nil, invalidArg(op, src, "source is not an existing directory")
	}
	if info, err := os.Stat(dest); err != nil || !info.IsDir() {
		return nil, invalidArg(op, dest, "destination is not an existing directory")
	}
	total, err := fsutil.DirSize(src, true)
	if err != nil {
		return nil, ioFailure(op, src, err)
	}
	entries, err := fsutil.ListNames(src)
	if err != nil {
		return nil, ioFailure(op, src, err)
	}

	c := &Copy{Src: src, Dest: dest, entries: entries}
	c.runner = newRunner(op, src, total, func(ctx context.Context) error {
		return fsutil.CopyDirContent(ctx, src, dest)
	}, c.processedSize)
	return c, nil
}

func (c *Copy) processedSize() int64 {
	size, err := fsutil.SizeOfEntries(c.Dest, c.entries)
	if err != nil {
		log.Printf("progress: failed to measure %s: %v", c.Dest, err)
		return -1
	}
	return size
}
