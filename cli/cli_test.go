package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MilitaerMilitz/2D-Kailexcraft/exitcode"
	"github.com/MilitaerMilitz/2D-Kailexcraft/progress"
)

func TestMapExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitcode.Success},
		{name: "coded", err: &ExitError{Code: exitcode.InvalidConfig, Err: errors.New("bad")}, want: exitcode.InvalidConfig},
		{name: "unknown command", err: errors.New("unknown command \"x\" for \"kailex\""), want: exitcode.InvalidUsage},
		{name: "generic", err: errors.New("boom"), want: exitcode.RuntimeFailure},
		{name: "interrupted", err: withKindCode(&progress.OpError{Kind: progress.ErrInterrupted, Op: "wait"}), want: exitcode.Interrupted},
		{name: "integrity", err: withKindCode(&progress.OpError{Kind: progress.ErrIntegrityMismatch, Op: "verify"}), want: exitcode.IntegrityMismatch},
		{name: "invalid argument", err: withKindCode(&progress.OpError{Kind: progress.ErrInvalidArgument, Op: "apply"}), want: exitcode.InvalidUsage},
		{name: "io failure", err: withKindCode(&progress.OpError{Kind: progress.ErrIOFailure, Op: "extract"}), want: exitcode.RuntimeFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapExitCode(tc.err); got != tc.want {
				t.Fatalf("mapExitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	app := &AppContext{
		Build: BuildInfo{Version: "test"},
		IO:    IOStreams{In: strings.NewReader(""), Out: stdout, ErrOut: stderr},
	}
	root := newRootCommand(app)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writePack(t *testing.T, home, name string) {
	t.Helper()
	dir := filepath.Join(home, "resourcepack", name, "assets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stone.png"), []byte("stone"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestApplyPacksHistory(t *testing.T) {
	home := t.TempDir()
	writePack(t, home, "themeA")

	out, stderr, err := runCommand(t, "--home", home, "--plain", "apply", "themeA")
	if err != nil {
		t.Fatalf("apply: %v\n%s", err, stderr)
	}
	if !strings.Contains(out, "Applied themeA") {
		t.Errorf("apply output = %q; want Applied themeA", out)
	}
	if _, err := os.Stat(filepath.Join(home, "resource", "assets", "stone.png")); err != nil {
		t.Errorf("pack content not applied: %v", err)
	}

	out, _, err = runCommand(t, "--home", home, "--quiet", "apply")
	if err != nil {
		t.Fatalf("apply active: %v", err)
	}
	if !strings.Contains(out, "themeA is already active") {
		t.Errorf("startup apply output = %q; want already active", out)
	}

	out, _, err = runCommand(t, "--home", home, "packs")
	if err != nil {
		t.Fatalf("packs: %v", err)
	}
	if !strings.Contains(out, "* themeA") {
		t.Errorf("packs output = %q; want themeA marked active", out)
	}

	out, _, err = runCommand(t, "--home", home, "history", "--limit", "5")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "Skipped") || !strings.Contains(out, "Succeeded") {
		t.Errorf("history output = %q; want a skipped and a succeeded run", out)
	}
}

func TestApplyMissingPackIsUsageError(t *testing.T) {
	home := t.TempDir()
	_, _, err := runCommand(t, "--home", home, "--quiet", "apply", "nope")
	if got := mapExitCode(err); got != exitcode.InvalidUsage {
		t.Errorf("exit code = %d; want %d (err %v)", got, exitcode.InvalidUsage, err)
	}
}

func TestOpenUsesFileManager(t *testing.T) {
	home := t.TempDir()
	var opened string
	original := openFile
	openFile = func(path string) error {
		opened = path
		return nil
	}
	defer func() { openFile = original }()

	if _, _, err := runCommand(t, "--home", home, "open", "packs"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened != filepath.Join(home, "resourcepack") {
		t.Errorf("opened %q; want the pack directory", opened)
	}

	_, _, err := runCommand(t, "--home", home, "open", "elsewhere")
	if got := mapExitCode(err); got != exitcode.InvalidUsage {
		t.Errorf("open with bad target exit = %d; want %d", got, exitcode.InvalidUsage)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "kailex version test") {
		t.Errorf("version output = %q", out)
	}
}
