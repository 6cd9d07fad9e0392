package progress

import (
	"context"
	"os"

	"github.com/MilitaerMilitz/2D-Kailexcraft/fsutil"
)

// Move moves the content of one directory into another and removes the
// emptied source.
type Move struct {
	*runner
	Src  string
	Dest string
}

func NewMove(src, dest string) (*Move, error) {
	const op = "move"

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

	m := &Move{Src: src, Dest: dest}
	m.runner = newRunner(op, src, total, func(ctx context.Context) error {
		return fsutil.MoveDirContent(ctx, src, dest)
	}, func() int64 { return remainingProgress(src, total) })
	return m, nil
}
