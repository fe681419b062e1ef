package build

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCargoToolchain(t *testing.T) {
	assert.Equal(t, "cargo", NewCargoToolchain("").Command())
	assert.Equal(t, "/opt/cargo/bin/cargo", NewCargoToolchain("/opt/cargo/bin/cargo").Command())
}

func TestCargoToolchainRejectsUnknownCommand(t *testing.T) {
	tc := NewCargoToolchain("make")

	err := tc.Build(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command validation failed")
	assert.Error(t, tc.Available())
}

func TestCargoToolchainRejectsInjectedCommand(t *testing.T) {
	tc := NewCargoToolchain("cargo; rm -rf /")

	err := tc.Format(context.Background(), t.TempDir())
	require.Error(t, err)
}

func TestCargoToolchainRejectsDangerousName(t *testing.T) {
	tc := NewCargoToolchain("cargo")

	err := tc.Init(context.Background(), t.TempDir(), "app;reboot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")
}

func TestBinaryName(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.Equal(t, "app.exe", BinaryName("app"))
	} else {
		assert.Equal(t, "app", BinaryName("app"))
	}
}
