package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

func isTTY(file *os.File) bool {
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && isTTY(file)
}

// looksLikePath reports whether arg names a filesystem location rather
// than a pack in the pack directory.
func looksLikePath(arg string) bool {
	return filepath.IsAbs(arg) || strings.ContainsAny(arg, `/\`) || arg == "." || arg == ".."
}
