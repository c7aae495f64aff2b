package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"memvid-mcp-server/internal/domain"
)

// MemvidClient invokes the external memvid binary.
// It implements the domain.CommandRunner interface. Arguments are passed
// as discrete tokens and never through a shell, so no quoting or
// interpolation ambiguity can arise.
type MemvidClient struct {
	binary string
}

// NewMemvidClient creates a client for the given binary location.
// An empty location falls back to the bare name "memvid" resolved via the
// standard executable search path.
func NewMemvidClient(binary string) *MemvidClient {
	if binary == "" {
		binary = domain.DefaultBinaryName
	}
	return &MemvidClient{binary: binary}
}

// Binary returns the configured executable location.
func (c *MemvidClient) Binary() string {
	return c.binary
}

// Run executes the binary with the prepared argument vector and captures
// both output streams. It never returns a fault for a process-level
// problem: a binary that cannot be found or started produces an
// unsuccessful result carrying the OS error text in Stderr.
//
// Cancelling the context kills the subprocess; there is no other timeout,
// so a hung binary hangs this call and only this call.
func (c *MemvidClient) Run(ctx context.Context, args []string) *domain.CommandResult {
	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &domain.CommandResult{
		Stdout: strings.TrimRight(stdout.String(), " \t\r\n"),
		Stderr: strings.TrimRight(stderr.String(), " \t\r\n"),
	}

	if err == nil {
		result.Success = true
		return result
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// Start failure: the binary is missing or not executable.
		result.Stdout = ""
		result.Stderr = err.Error()
		return result
	}

	// Ran but exited non-zero; the CLI's JSON error document, if any, is
	// already captured in Stdout.
	return result
}
