package build

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnterDirRestore(t *testing.T) {
	start, err := os.Getwd()
	require.NoError(t, err)

	target := t.TempDir()
	guard, err := EnterDir(target)
	require.NoError(t, err)

	assert.Equal(t, cwd(target), cwd("."))
	assert.Equal(t, start, guard.Previous())

	require.NoError(t, guard.Restore())
	require.NoError(t, guard.Restore(), "restore is idempotent")

	now, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, now)
}

func TestEnterDirMissing(t *testing.T) {
	start, err := os.Getwd()
	require.NoError(t, err)

	_, err = EnterDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	now, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, now)

	// The lock was released, so another change succeeds.
	guard, err := EnterDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, guard.Restore())
}

func TestEnterDirSerializes(t *testing.T) {
	start, err := os.Getwd()
	require.NoError(t, err)

	dirs := []string{t.TempDir(), t.TempDir(), t.TempDir()}

	var wg sync.WaitGroup
	mismatches := make(chan string, len(dirs)*10)
	for i := 0; i < 10; i++ {
		for _, dir := range dirs {
			wg.Add(1)
			go func(dir string) {
				defer wg.Done()
				guard, err := EnterDir(dir)
				if err != nil {
					mismatches <- err.Error()
					return
				}
				if cwd(".") != cwd(dir) {
					mismatches <- dir
				}
				_ = guard.Restore()
			}(dir)
		}
	}
	wg.Wait()
	close(mismatches)

	for m := range mismatches {
		t.Errorf("unexpected working directory or error: %s", m)
	}

	now, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, now)
}
