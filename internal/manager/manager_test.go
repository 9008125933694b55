package manager

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathflowapp/pathflow/internal/errors"
	"github.com/pathflowapp/pathflow/internal/metrics"
	"github.com/pathflowapp/pathflow/internal/validate"
	"github.com/pathflowapp/pathflow/internal/watcher"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// collector records callback invocations.
type collector struct {
	seen chan string
}

func newCollector() *collector {
	return &collector{seen: make(chan string, 32)}
}

func (c *collector) callback(_ context.Context, path string) error {
	c.seen <- path
	return nil
}

// waitForPath drains seen until want shows up; duplicate notifications for
// earlier paths are ignored.
func waitForPath(t *testing.T, seen <-chan string, want, failMsg string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case path := <-seen:
			if path == want {
				return
			}
		case <-deadline:
			t.Fatal(failMsg)
		}
	}
}

func startManager(t *testing.T, m *Manager) {
	t.Helper()
	go func() { _ = m.Run(context.Background()) }()
	require.Eventually(t, func() bool {
		return m.State() == StateRunning
	}, time.Second, 10*time.Millisecond)
	t.Cleanup(m.Stop)
}

func TestManager_RequiresPath(t *testing.T) {
	_, err := New(Config{}, nil, nil, testLogger(), nil)
	assert.Error(t, err)
}

func TestManager_EndToEndFiltering(t *testing.T) {
	tmpDir := t.TempDir()
	coll := newCollector()

	m, err := New(Config{
		PathToMonitor:     tmpDir,
		AllowPatterns:     []string{`.*\.txt$`},
		IgnoreDirectories: true,
		CaseSensitive:     true,
	}, nil, coll.callback, testLogger(), nil)
	require.NoError(t, err)

	startManager(t, m)

	matching := filepath.Join(tmpDir, "test_file.txt")
	require.NoError(t, os.WriteFile(matching, []byte("hello"), 0o644))

	select {
	case path := <-coll.seen:
		assert.Equal(t, matching, path)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for matching file")
	}

	// A non-matching extension must produce zero enqueues. Create and
	// write notifications may both fire for the matching file, so only a
	// callback for the filtered path is a failure.
	filtered := filepath.Join(tmpDir, "test_file.json")
	require.NoError(t, os.WriteFile(filtered, []byte("{}"), 0o644))

	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case path := <-coll.seen:
			require.NotEqual(t, filtered, path, "filtered path reached the callback")
		case <-deadline:
			return
		}
	}
}

func TestManager_ValidatedPipeline(t *testing.T) {
	tmpDir := t.TempDir()
	coll := newCollector()

	v, err := validate.NewFileValidator(validate.Rules{
		NamePattern: "report",
		MinSize:     validate.Int64(3),
	})
	require.NoError(t, err)

	m, err := New(Config{
		PathToMonitor:     tmpDir,
		IgnoreDirectories: true,
	}, v, coll.callback, testLogger(), nil)
	require.NoError(t, err)

	startManager(t, m)

	accepted := filepath.Join(tmpDir, "report.txt")
	require.NoError(t, os.WriteFile(accepted, []byte("data!"), 0o644))

	select {
	case path := <-coll.seen:
		assert.Equal(t, accepted, path)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for validated file")
	}
}

func TestManager_CallbackErrorDoesNotKillConsumer(t *testing.T) {
	tmpDir := t.TempDir()

	seen := make(chan string, 8)
	first := true
	callback := func(_ context.Context, path string) error {
		if first {
			first = false
			return errors.New("callback exploded")
		}
		seen <- path
		return nil
	}

	m, err := New(Config{
		PathToMonitor:     tmpDir,
		IgnoreDirectories: true,
	}, nil, callback, testLogger(), nil)
	require.NoError(t, err)

	startManager(t, m)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "first.txt"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)
	second := filepath.Join(tmpDir, "second.txt")
	require.NoError(t, os.WriteFile(second, []byte("x"), 0o644))

	waitForPath(t, seen, second, "consumer loop did not survive callback error")
}

func TestManager_CallbackPanicRecovered(t *testing.T) {
	tmpDir := t.TempDir()

	seen := make(chan string, 8)
	first := true
	callback := func(_ context.Context, path string) error {
		if first {
			first = false
			panic("callback panic")
		}
		seen <- path
		return nil
	}

	m, err := New(Config{
		PathToMonitor:     tmpDir,
		IgnoreDirectories: true,
	}, nil, callback, testLogger(), nil)
	require.NoError(t, err)

	startManager(t, m)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "boom.txt"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)
	ok := filepath.Join(tmpDir, "ok.txt")
	require.NoError(t, os.WriteFile(ok, []byte("x"), 0o644))

	waitForPath(t, seen, ok, "consumer loop did not survive callback panic")
}

func TestManager_StopIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()

	m, err := New(Config{PathToMonitor: tmpDir}, nil, nil, testLogger(), nil)
	require.NoError(t, err)

	startManager(t, m)

	m.Stop()
	assert.Equal(t, StateStopped, m.State())
	m.Stop()
	assert.Equal(t, StateStopped, m.State())
}

func TestManager_NoRestartAfterStop(t *testing.T) {
	tmpDir := t.TempDir()

	m, err := New(Config{PathToMonitor: tmpDir}, nil, nil, testLogger(), nil)
	require.NoError(t, err)

	startManager(t, m)
	m.Stop()

	err = m.Run(context.Background())
	assert.ErrorIs(t, err, errors.ErrManagerDone)
}

func TestManager_StopBeforeRun(t *testing.T) {
	tmpDir := t.TempDir()

	m, err := New(Config{PathToMonitor: tmpDir}, nil, nil, testLogger(), nil)
	require.NoError(t, err)

	m.Stop()
	assert.Equal(t, StateStopped, m.State())

	err = m.Run(context.Background())
	assert.ErrorIs(t, err, errors.ErrManagerDone)
}

func TestManager_DoubleRunRejected(t *testing.T) {
	tmpDir := t.TempDir()

	m, err := New(Config{PathToMonitor: tmpDir}, nil, nil, testLogger(), nil)
	require.NoError(t, err)

	startManager(t, m)

	err = m.Run(context.Background())
	assert.ErrorIs(t, err, errors.ErrManagerDone)
}

func TestManager_ContextCancellationStops(t *testing.T) {
	tmpDir := t.TempDir()

	m, err := New(Config{PathToMonitor: tmpDir}, nil, nil, testLogger(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		return m.State() == StateRunning
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean stop, not a fatal error")
	case <-time.After(3 * time.Second):
		t.Fatal("manager did not stop on context cancellation")
	}
	assert.Equal(t, StateStopped, m.State())
}

// consumeRecorder signals every consumed task.
type consumeRecorder struct {
	metrics.Noop
	consumed chan string
}

func (r *consumeRecorder) TaskConsumed(path string) { r.consumed <- path }

func TestManager_DrainWithoutCallback(t *testing.T) {
	tmpDir := t.TempDir()
	rec := &consumeRecorder{consumed: make(chan string, 8)}

	m, err := New(Config{
		PathToMonitor:     tmpDir,
		IgnoreDirectories: true,
		Watcher:           watcher.Options{Mode: watcher.ModePoll, PollInterval: 20 * time.Millisecond},
	}, nil, nil, testLogger(), rec)
	require.NoError(t, err)

	startManager(t, m)

	path := filepath.Join(tmpDir, "drained.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	// Without a callback the consumer still drains and acknowledges tasks.
	waitForPath(t, rec.consumed, path, "task was never consumed")
	assert.Equal(t, 0, m.TaskQueue().Len())
}
