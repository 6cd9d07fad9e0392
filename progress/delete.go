package progress

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/MilitaerMilitz/2D-Kailexcraft/fsutil"
)

// Delete removes a directory tree. Progress is the total minus what is
// still left on disk.
type Delete struct {
	*runner
	Target string
}

func NewDelete(target string) (*Delete, error) {
	const op = "delete"

	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		return nil, invalidArg(op, target, "target is not an existing directory")
	}
	total, err := fsutil.DirSize(target, true)
	if err != nil {
		return nil, ioFailure(op, target, err)
	}

	d := &Delete{Target: target}
	d.runner = newRunner(op, target, total, func(ctx context.Context) error {
		return fsutil.DeleteDir(ctx, target)
	}, func() int64 { return remainingProgress(target, total) })
	return d, nil
}

// remainingProgress reports total minus the bytes still below dir. A
// vanished dir counts as fully processed.
func remainingProgress(dir string, total int64) int64 {
	remaining, err := fsutil.DirSize(dir, true)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return total
		}
		return -1
	}
	return total - remaining
}
