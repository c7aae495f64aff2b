package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript drops an executable shell script into a temp dir and
// returns its path. The scripts stand in for the memvid binary.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not available on windows")
	}

	path := filepath.Join(t.TempDir(), "memvid")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755)
	require.NoError(t, err)
	return path
}

func TestRunCapturesStdout(t *testing.T) {
	bin := writeScript(t, `echo '{"frame_id": 42}'`)
	client := NewMemvidClient(bin)

	result := client.Run(context.Background(), []string{"put", "/m.mv2"})

	assert.True(t, result.Success)
	assert.Equal(t, `{"frame_id": 42}`, result.Stdout)
	assert.Empty(t, result.Stderr)
}

func TestRunTrimsTrailingWhitespace(t *testing.T) {
	bin := writeScript(t, "printf 'out \\n\\n'\nprintf 'err\\t\\n' >&2")
	client := NewMemvidClient(bin)

	result := client.Run(context.Background(), nil)

	assert.Equal(t, "out", result.Stdout)
	assert.Equal(t, "err", result.Stderr)
}

func TestRunNonZeroExit(t *testing.T) {
	bin := writeScript(t, `echo '{"error":"File not found"}'`+"\nexit 1")
	client := NewMemvidClient(bin)

	result := client.Run(context.Background(), []string{"stats", "/missing.mv2"})

	assert.False(t, result.Success)
	// The CLI's JSON error document stays available for the formatter.
	assert.Equal(t, `{"error":"File not found"}`, result.Stdout)
}

func TestRunMissingBinary(t *testing.T) {
	client := NewMemvidClient(filepath.Join(t.TempDir(), "does-not-exist"))

	result := client.Run(context.Background(), []string{"stats", "/m.mv2"})

	// A launch failure is a result, never a fault.
	assert.False(t, result.Success)
	assert.Empty(t, result.Stdout)
	assert.NotEmpty(t, result.Stderr)
}

func TestRunArgumentsAreDiscreteTokens(t *testing.T) {
	// Each argument must arrive as its own token; a query with spaces and
	// shell metacharacters is one positional.
	bin := writeScript(t, `printf '%s\n' "$#" "$2"`)
	client := NewMemvidClient(bin)

	result := client.Run(context.Background(), []string{"search", `hello; rm -rf "$HOME"`})

	assert.True(t, result.Success)
	assert.Equal(t, "2\nhello; rm -rf \"$HOME\"", result.Stdout)
}

func TestRunContextCancellationKillsProcess(t *testing.T) {
	bin := writeScript(t, "sleep 30")
	client := NewMemvidClient(bin)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := client.Run(ctx, nil)

	assert.False(t, result.Success)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewMemvidClientDefaultsBinaryName(t *testing.T) {
	client := NewMemvidClient("")
	assert.Equal(t, "memvid", client.Binary())
}
