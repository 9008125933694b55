package validate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestFileValidator_AcceptsMatchingFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.txt", 1500)

	v, err := NewFileValidator(Rules{
		NamePattern: "report",
		MinSize:     Int64(1000),
		MaxSize:     Int64(2000),
	})
	require.NoError(t, err)

	res := v.Validate(context.Background(), path)
	require.True(t, res.OK, "reason: %s", res.Reason)
	assert.Equal(t, int64(1500), res.Attrs[AttrFileSize])
	assert.Contains(t, res.Attrs, AttrCreationTime)
	assert.Contains(t, res.Attrs, AttrModifiedTime)
}

func TestFileValidator_NameMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "other.txt", 1500)

	v, err := NewFileValidator(Rules{NamePattern: "report"})
	require.NoError(t, err)

	res := v.Validate(context.Background(), path)
	require.False(t, res.OK)
	assert.Contains(t, res.Reason, "does not match")
}

func TestFileValidator_PatternMatchesBasenameOnly(t *testing.T) {
	// The directory name must not satisfy the pattern.
	dir := filepath.Join(t.TempDir(), "report")
	require.NoError(t, os.Mkdir(dir, 0o755))
	path := writeFile(t, dir, "other.txt", 10)

	v, err := NewFileValidator(Rules{NamePattern: "report"})
	require.NoError(t, err)

	res := v.Validate(context.Background(), path)
	assert.False(t, res.OK)
}

func TestFileValidator_SizeRange(t *testing.T) {
	dir := t.TempDir()
	v, err := NewFileValidator(Rules{MinSize: Int64(100), MaxSize: Int64(200)})
	require.NoError(t, err)
	ctx := context.Background()

	tooSmall := v.Validate(ctx, writeFile(t, dir, "small.bin", 50))
	require.False(t, tooSmall.OK)
	assert.Contains(t, tooSmall.Reason, "less than minimum")

	tooBig := v.Validate(ctx, writeFile(t, dir, "big.bin", 300))
	require.False(t, tooBig.OK)
	assert.Contains(t, tooBig.Reason, "greater than maximum")

	// Bounds are inclusive.
	assert.True(t, v.Validate(ctx, writeFile(t, dir, "lo.bin", 100)).OK)
	assert.True(t, v.Validate(ctx, writeFile(t, dir, "hi.bin", 200)).OK)
}

func TestFileValidator_RejectsDirectory(t *testing.T) {
	dir := t.TempDir()

	v, err := NewFileValidator(Rules{})
	require.NoError(t, err)

	res := v.Validate(context.Background(), dir)
	require.False(t, res.OK)
	assert.Contains(t, res.Reason, "not a regular file")
}

func TestFileValidator_MissingPath(t *testing.T) {
	v, err := NewFileValidator(Rules{})
	require.NoError(t, err)

	res := v.Validate(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	require.False(t, res.OK)
	assert.Contains(t, res.Reason, "does not exist")
}

func TestFileValidator_ModifiedWindow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f.txt", 10)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	inWindow, err := NewFileValidator(Rules{ModifiedAfter: Time(past), ModifiedBefore: Time(future)})
	require.NoError(t, err)
	assert.True(t, inWindow.Validate(context.Background(), path).OK)

	tooNew, err := NewFileValidator(Rules{ModifiedBefore: Time(past)})
	require.NoError(t, err)
	res := tooNew.Validate(context.Background(), path)
	require.False(t, res.OK)
	assert.Contains(t, res.Reason, "after maximum")
}

func TestFileValidator_InvalidPattern(t *testing.T) {
	_, err := NewFileValidator(Rules{NamePattern: "["})
	assert.Error(t, err)
}

func TestFileValidator_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.txt", 150)

	v, err := NewFileValidator(Rules{NamePattern: "report", MinSize: Int64(100)})
	require.NoError(t, err)

	first := v.Validate(context.Background(), path)
	second := v.Validate(context.Background(), path)
	assert.Equal(t, first.OK, second.OK)
	assert.Equal(t, first.Reason, second.Reason)
}

func TestFolderValidator_TypeInvariant(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "f.txt", 10)

	v, err := NewFolderValidator(Rules{})
	require.NoError(t, err)

	assert.True(t, v.Validate(context.Background(), dir).OK)

	res := v.Validate(context.Background(), file)
	require.False(t, res.OK)
	assert.Contains(t, res.Reason, "not a folder")
}

func TestFolderValidator_NamePattern(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "ingest_0042")
	require.NoError(t, os.Mkdir(dir, 0o755))

	v, err := NewFolderValidator(Rules{NamePattern: `^ingest_\d+$`})
	require.NoError(t, err)
	assert.True(t, v.Validate(context.Background(), dir).OK)

	other := filepath.Join(parent, "scratch")
	require.NoError(t, os.Mkdir(other, 0o755))
	assert.False(t, v.Validate(context.Background(), other).OK)
}

// recordingValidator counts invocations, for short-circuit assertions.
type recordingValidator struct {
	calls  int
	result Result
}

func (r *recordingValidator) Validate(context.Context, string) Result {
	r.calls++
	return r.result
}

func TestCompositeValidator_ShortCircuit(t *testing.T) {
	failing := &recordingValidator{result: Reject("first failed")}
	after := &recordingValidator{result: Accept(nil)}

	comp := NewCompositeValidator(failing, after)
	res := comp.Validate(context.Background(), "/any")

	require.False(t, res.OK)
	assert.Equal(t, "first failed", res.Reason)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 0, after.calls, "second validator must not run after a rejection")
}

func TestCompositeValidator_MergesAttrs(t *testing.T) {
	first := &recordingValidator{result: Accept(map[string]any{"a": 1, "shared": "old"})}
	second := &recordingValidator{result: Accept(map[string]any{"b": 2, "shared": "new"})}

	comp := NewCompositeValidator(first, second)
	res := comp.Validate(context.Background(), "/any")

	require.True(t, res.OK)
	assert.Equal(t, 1, res.Attrs["a"])
	assert.Equal(t, 2, res.Attrs["b"])
	assert.Equal(t, "new", res.Attrs["shared"], "later validators win on key collision")
}

func TestCompositeValidator_BothAcceptIsAccept(t *testing.T) {
	dir := t.TempDir()

	folder, err := NewFolderValidator(Rules{})
	require.NoError(t, err)
	named, err := NewFolderValidator(Rules{NamePattern: "."})
	require.NoError(t, err)

	comp := NewCompositeValidator(folder, named)
	assert.True(t, comp.Validate(context.Background(), dir).OK)
}

func TestAwaitFileValidator_CompanionPresent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ShotLog.json", 32)

	v := NewAwaitFileValidator("ShotLog.json", AwaitOptions{Timeout: 200 * time.Millisecond}, nil)
	res := v.Validate(context.Background(), dir)
	assert.True(t, res.OK, "reason: %s", res.Reason)
}

func TestAwaitFileValidator_TimesOutOnMissingCompanion(t *testing.T) {
	dir := t.TempDir()

	v := NewAwaitFileValidator("ShotLog.json", AwaitOptions{
		Timeout: 100 * time.Millisecond,
		Backoff: 10 * time.Millisecond,
	}, nil)

	start := time.Now()
	res := v.Validate(context.Background(), dir)
	require.False(t, res.OK)
	assert.Contains(t, res.Reason, "within")
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestAwaitFileValidator_EmptyCompanionRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ShotLog.json", 0)

	v := NewAwaitFileValidator("ShotLog.json", AwaitOptions{
		Timeout: 100 * time.Millisecond,
		Backoff: 10 * time.Millisecond,
	}, nil)
	assert.False(t, v.Validate(context.Background(), dir).OK)
}

func TestAwaitFileValidator_CompanionAppearsLate(t *testing.T) {
	dir := t.TempDir()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "ShotLog.json"), []byte("{}"), 0o644)
	}()

	v := NewAwaitFileValidator("ShotLog.json", AwaitOptions{
		Timeout: time.Second,
		Backoff: 10 * time.Millisecond,
	}, nil)
	assert.True(t, v.Validate(context.Background(), dir).OK)
}

func TestAwaitFileValidator_ResolvesCompanionPath(t *testing.T) {
	dir := t.TempDir()
	companion := writeFile(t, dir, "ShotLog.json", 8)

	v := NewAwaitFileValidator("ShotLog.json", AwaitOptions{
		Timeout:          200 * time.Millisecond,
		ResolveCompanion: true,
	}, nil)

	res := v.Validate(context.Background(), dir)
	require.True(t, res.OK)
	assert.Equal(t, companion, res.Attrs[AttrResolvedPath])
}

func TestAwaitFileValidator_RejectsFile(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "f.txt", 1)

	v := NewAwaitFileValidator("ShotLog.json", AwaitOptions{}, nil)
	res := v.Validate(context.Background(), file)
	require.False(t, res.OK)
	assert.Contains(t, res.Reason, "not a folder")
}

func TestAwaitFileValidator_CancelledContext(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := NewAwaitFileValidator("ShotLog.json", AwaitOptions{Timeout: time.Second}, nil)
	res := v.Validate(ctx, dir)
	require.False(t, res.OK)
	assert.Contains(t, res.Reason, "cancelled")
}
