package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresOncePerBurst(t *testing.T) {
	dir := t.TempDir()
	descriptor := filepath.Join(dir, "lyra.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(descriptor, []byte("a"), 0o644))

	calls := make(chan struct{}, 10)
	w, err := NewWatcher([]string{descriptor}, func() error {
		calls <- struct{}{}
		return nil
	})
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(descriptor, []byte{byte('b' + i)}, 0o644))
	}

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("callback never ran")
	}
	select {
	case <-calls:
		t.Fatal("burst produced a second run")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing", "lyra.yaml")}, func() error { return nil })
	assert.Error(t, err)
}
