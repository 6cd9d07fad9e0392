package progress

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MilitaerMilitz/2D-Kailexcraft/downloads"
)

const testInterval = 5 * time.Millisecond

type fakeTask struct {
	total     int64
	processed atomic.Int64
	done      chan struct{}
	once      sync.Once
	err       error
	started   atomic.Bool
	cancelled atomic.Bool
}

func newFakeTask(total int64) *fakeTask {
	return &fakeTask{total: total, done: make(chan struct{})}
}

func (f *fakeTask) finish(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

func (f *fakeTask) TotalSize() int64      { return f.total }
func (f *fakeTask) ProcessedSize() int64  { return f.processed.Load() }
func (f *fakeTask) Percentage() int       { return Percentage(f.ProcessedSize(), f.total) }
func (f *fakeTask) Start()                { f.started.Store(true) }
func (f *fakeTask) Done() <-chan struct{} { return f.done }

func (f *fakeTask) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *fakeTask) Failed() bool { return f.Ready() && f.err != nil }

func (f *fakeTask) Err() error {
	if !f.Ready() {
		return nil
	}
	return f.err
}

func (f *fakeTask) Cancel() {
	f.cancelled.Store(true)
	f.finish(&OpError{Kind: ErrInterrupted, Op: "fake", Err: context.Canceled})
}

type recordingSink struct {
	mu      sync.Mutex
	updates []string
	percent []int
}

func (s *recordingSink) Progress(message string, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, message)
	s.percent = append(s.percent, percent)
}

func (s *recordingSink) snapshot() ([]string, []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.updates...), append([]int(nil), s.percent...)
}

func waitSignal(t *testing.T, s *Signal) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if errors.Is(err, ErrInterrupted) && ctx.Err() != nil {
		t.Fatal("signal did not resolve in time")
	}
	return err
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		processed int64
		total     int64
		want      int
	}{
		{-1, 100, -1},
		{-5, 100, -1},
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 66},
		{99, 100, 99},
		{100, 100, 100},
		{250, 100, 100},
		{10, 0, -1},
		{10, -1, -1},
		{315908093, 315908094, 99},
	}
	for _, tt := range tests {
		if got := Percentage(tt.processed, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d; want %d", tt.processed, tt.total, got, tt.want)
		}
	}
}

func TestPercentageBounds(t *testing.T) {
	const total = 1000
	for p := int64(-1); p <= 2*total; p += 7 {
		got := Percentage(p, total)
		if got < -1 || got > 100 {
			t.Fatalf("Percentage(%d, %d) = %d; want within [-1, 100]", p, total, got)
		}
	}
}

func TestMonitorReportsAndResolves(t *testing.T) {
	sink := &recordingSink{}
	m := NewMonitor(sink, testInterval)
	task := newFakeTask(200)
	task.processed.Store(50)

	signal := m.Watch(task, "Downloading")
	time.Sleep(4 * testInterval)
	task.finish(nil)

	if err := waitSignal(t, signal); err != nil {
		t.Fatalf("signal error = %v; want nil", err)
	}
	messages, percents := sink.snapshot()
	if len(messages) == 0 {
		t.Fatal("sink received no updates")
	}
	for i, msg := range messages {
		if msg != "Downloading" || percents[i] != 25 {
			t.Errorf("update %d = (%q, %d); want (%q, 25)", i, msg, percents[i], "Downloading")
		}
	}

	deadline := time.Now().Add(time.Second)
	for m.Active() && time.Now().Before(deadline) {
		time.Sleep(testInterval)
	}
	if m.Active() {
		t.Error("monitor still active after its task finished")
	}
}

func TestMonitorSurfacesFailure(t *testing.T) {
	m := NewMonitor(nil, testInterval)
	task := newFakeTask(10)
	cause := &OpError{Kind: ErrIOFailure, Op: "extract", Err: errors.New("disk full")}
	task.finish(cause)

	err := waitSignal(t, m.Watch(task, "Extracting"))
	if !errors.Is(err, ErrIOFailure) {
		t.Errorf("signal error = %v; want ErrIOFailure", err)
	}
	if !task.Ready() || !task.Failed() {
		t.Errorf("Ready = %v, Failed = %v; want true, true", task.Ready(), task.Failed())
	}
}

func TestMonitorPreemption(t *testing.T) {
	var secondInstalled atomic.Bool
	var leaked atomic.Int32
	sink := SinkFunc(func(message string, percent int) {
		if message == "first" && secondInstalled.Load() {
			leaked.Add(1)
		}
	})
	m := NewMonitor(sink, testInterval)

	first := newFakeTask(10)
	second := newFakeTask(10)
	firstSignal := m.Watch(first, "first")
	time.Sleep(3 * testInterval)

	secondSignal := m.Watch(second, "second")
	secondInstalled.Store(true)

	if err := firstSignal.Err(); !errors.Is(err, ErrPreempted) {
		t.Errorf("first signal = %v; want ErrPreempted", err)
	}
	if !first.cancelled.Load() {
		t.Error("preempted task was not cancelled")
	}

	time.Sleep(4 * testInterval)
	if n := leaked.Load(); n != 0 {
		t.Errorf("first watch ticked %d times after being preempted", n)
	}

	second.finish(nil)
	if err := waitSignal(t, secondSignal); err != nil {
		t.Errorf("second signal = %v; want nil", err)
	}
}

func TestMonitorPreemptWithoutCancel(t *testing.T) {
	m := NewMonitor(nil, testInterval, WithCancelOnPreempt(false))
	first := newFakeTask(10)
	m.Watch(first, "first")
	m.Watch(newFakeTask(10), "second")
	m.Stop()

	if first.cancelled.Load() {
		t.Error("task cancelled although cancel-on-preempt is off")
	}
	if m.Active() {
		t.Error("monitor active after Stop")
	}
}

func TestSignalResolvesOnce(t *testing.T) {
	s := NewSignal()
	if s.Err() != nil {
		t.Fatalf("pending signal Err = %v; want nil", s.Err())
	}
	if !s.Resolve(nil) {
		t.Error("first Resolve = false; want true")
	}
	if s.Resolve(ErrIOFailure) {
		t.Error("second Resolve = true; want false")
	}
	if err := s.Wait(context.Background()); err != nil {
		t.Errorf("Wait = %v; want nil", err)
	}
}

func TestRunInterrupted(t *testing.T) {
	m := NewMonitor(nil, testInterval)
	task := newFakeTask(10)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(3 * testInterval)
		cancel()
	}()

	err := Run(ctx, m, task, "waiting")
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("Run = %v; want ErrInterrupted", err)
	}
	if !task.cancelled.Load() {
		t.Error("task not cancelled on interruption")
	}
}

func TestCopyThenDelete(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFiles(t, src, map[string]string{
		"pack.mcmeta":           "{}",
		"assets/textures/a.png": "aaaa",
		"assets/lang/en.json":   "{\"a\":1}",
	})

	copyTask, err := NewCopy(src, dst)
	if err != nil {
		t.Fatalf("NewCopy: %v", err)
	}
	if copyTask.TotalSize() != 2+4+7 {
		t.Errorf("TotalSize = %d; want %d", copyTask.TotalSize(), 13)
	}
	if got := copyTask.Percentage(); got != 0 {
		t.Errorf("Percentage before start = %d; want 0", got)
	}
	if err := Run(context.Background(), NewMonitor(nil, testInterval), copyTask, "Copying"); err != nil {
		t.Fatalf("Run copy: %v", err)
	}
	if got := copyTask.Percentage(); got != 100 {
		t.Errorf("Percentage after copy = %d; want 100", got)
	}

	deleteTask, err := NewDelete(dst)
	if err != nil {
		t.Fatalf("NewDelete: %v", err)
	}
	if err := Run(context.Background(), nil, deleteTask, "Deleting"); err != nil {
		t.Fatalf("Run delete: %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("delete target still exists: %v", err)
	}
	if got := deleteTask.ProcessedSize(); got != deleteTask.TotalSize() {
		t.Errorf("ProcessedSize after delete = %d; want %d", got, deleteTask.TotalSize())
	}
}

func TestMoveTask(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "staging", "pack-root")
	dst := filepath.Join(root, "resource")
	writeFiles(t, src, map[string]string{"assets/a.png": "abc"})
	os.Mkdir(dst, 0755)

	task, err := NewMove(src, dst)
	if err != nil {
		t.Fatalf("NewMove: %v", err)
	}
	if err := Run(context.Background(), nil, task, "Moving"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "assets", "a.png")); err != nil {
		t.Errorf("moved file missing: %v", err)
	}
	if task.Percentage() != 100 {
		t.Errorf("Percentage = %d; want 100", task.Percentage())
	}
}

func TestExtractTaskDotPrefixedArchive(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(root, "pack.zip")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("./assets/a.png")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(strings.Repeat("x", 1000)))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dest := filepath.Join(root, "resource")
	os.Mkdir(dest, 0755)

	task, err := NewExtract(archive, dest)
	if err != nil {
		t.Fatalf("NewExtract: %v", err)
	}
	if err := Run(context.Background(), nil, task, "Extracting"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := task.ProcessedSize(); got != 1000 {
		t.Errorf("ProcessedSize = %d; want 1000", got)
	}
	if task.Percentage() <= 0 {
		t.Errorf("Percentage = %d; want progress once extracted", task.Percentage())
	}
}

func TestConstructorsRejectInvalidArguments(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	os.WriteFile(file, []byte("not an archive"), 0644)
	missing := filepath.Join(dir, "missing")
	client := downloads.NewClient(downloads.S3Options{})

	tests := []struct {
		name string
		fn   func() error
	}{
		{"copy missing source", func() error { _, err := NewCopy(missing, dir); return err }},
		{"copy file source", func() error { _, err := NewCopy(file, dir); return err }},
		{"delete file", func() error { _, err := NewDelete(file); return err }},
		{"extract non archive", func() error { _, err := NewExtract(file, dir); return err }},
		{"extract missing dest", func() error { _, err := NewExtract(file, missing); return err }},
		{"move missing dest", func() error { _, err := NewMove(dir, missing); return err }},
		{"download bad url", func() error {
			_, err := NewDownload(client, "ftp://example.com/a.zip", filepath.Join(dir, "a.zip"), -1)
			return err
		}},
		{"download non-empty dest", func() error {
			_, err := NewDownload(client, "https://example.com/a.zip", file, -1)
			return err
		}},
		{"download dir dest", func() error {
			_, err := NewDownload(client, "https://example.com/a.zip", dir, -1)
			return err
		}},
	}
	for _, tt := range tests {
		if err := tt.fn(); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: error = %v; want ErrInvalidArgument", tt.name, err)
		}
	}
}

func TestDownloadTask(t *testing.T) {
	body := strings.Repeat("x", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "pack.zip")
	task, err := NewDownload(downloads.NewClient(downloads.S3Options{}), srv.URL, dest, int64(len(body)))
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	if got := task.Percentage(); got != -1 {
		t.Errorf("Percentage before start = %d; want -1", got)
	}
	if err := Run(context.Background(), NewMonitor(nil, testInterval), task, "Downloading"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := task.Percentage(); got != 100 {
		t.Errorf("Percentage = %d; want 100", got)
	}
	if task.State() != StateSucceeded {
		t.Errorf("State = %v; want Succeeded", task.State())
	}
}

func TestDownloadTaskFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "pack.zip")
	task, err := NewDownload(downloads.NewClient(downloads.S3Options{}), srv.URL, dest, 10)
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	err = Run(context.Background(), NewMonitor(nil, testInterval), task, "Downloading")
	if !errors.Is(err, ErrIOFailure) {
		t.Errorf("Run = %v; want ErrIOFailure", err)
	}
	if !task.Ready() || !task.Failed() {
		t.Errorf("Ready = %v, Failed = %v; want true, true", task.Ready(), task.Failed())
	}
}

func TestKindOf(t *testing.T) {
	err := &OpError{Kind: ErrIntegrityMismatch, Op: "install", Err: errors.New("size")}
	if KindOf(err) != ErrIntegrityMismatch {
		t.Errorf("KindOf = %v; want ErrIntegrityMismatch", KindOf(err))
	}
	if KindOf(errors.New("plain")) != nil {
		t.Error("KindOf(plain) != nil")
	}
}
