package fsutil

import (
	"context"
	"fmt"
	"io"
)

// BufferSize is the chunk size for context-aware copies.
const BufferSize = 32 * 1024 // 32KB

// CopyContext copies src to dst in BufferSize chunks, checking ctx between
// chunks so long transfers can be cancelled cooperatively.
func CopyContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buffer := make([]byte, BufferSize)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		n, err := src.Read(buffer)
		if n > 0 {
			m, writeErr := dst.Write(buffer[:n])
			written += int64(m)
			if writeErr != nil {
				return written, fmt.Errorf("failed to write: %w", writeErr)
			}
			if m != n {
				return written, io.ErrShortWrite
			}
		}

		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("failed to read: %w", err)
		}
	}
}
