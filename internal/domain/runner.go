package domain

import (
	"context"
)

// CommandResult captures the outcome of one memvid CLI invocation.
// Success reflects only the process exit status; Stdout may or may not be
// valid JSON regardless of it. Stdout and Stderr are trimmed of trailing
// whitespace.
type CommandResult struct {
	Success bool
	Stdout  string
	Stderr  string
}

// CommandRunner executes the external memvid binary with a prepared
// argument vector. Implementations must never fail with an error for a
// process-level problem: a binary that cannot be started is reported as an
// unsuccessful CommandResult carrying the OS error text in Stderr.
//
// Each call spawns an independent subprocess; there is no shared state
// between concurrent invocations. Cancelling the context kills the
// subprocess and ends the wait.
type CommandRunner interface {
	Run(ctx context.Context, args []string) *CommandResult
}
