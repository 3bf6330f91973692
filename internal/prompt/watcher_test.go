package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	reg, err := NewRegistry(dir, zap.NewNop())
	require.NoError(t, err)

	w, err := NewWatcher(reg, zap.NewNop())
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(dir, "analyze_website.txt")
	require.NoError(t, os.WriteFile(path, []byte("custom analysis prompt"), 0o644))

	require.Eventually(t, func() bool {
		got, err := reg.Get("analyze_website")
		return err == nil && got == "custom analysis prompt"
	}, 3*time.Second, 50*time.Millisecond, "override should be picked up")

	// Deleting the override falls back to the embedded default.
	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		got, err := reg.Get("analyze_website")
		return err == nil && strings.Contains(got, "{{business_name}}")
	}, 3*time.Second, 50*time.Millisecond, "delete should restore the default")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	reg, err := NewRegistry(dir, zap.NewNop())
	require.NoError(t, err)

	w, err := NewWatcher(reg, zap.NewNop())
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.md"), []byte("noise"), 0o644))

	// Give the loop a few ticks; the registry must not grow a template.
	time.Sleep(300 * time.Millisecond)
	_, err = reg.Get("scratch")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestWatcher_RequiresDir(t *testing.T) {
	reg, err := NewRegistry("", nil)
	require.NoError(t, err)

	_, err = NewWatcher(reg, nil)
	require.Error(t, err)
}

func TestWatcher_StartIdempotentStopSafe(t *testing.T) {
	dir := t.TempDir()
	reg, err := NewRegistry(dir, zap.NewNop())
	require.NoError(t, err)

	w, err := NewWatcher(reg, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, w.Start())
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
}
