package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ResultFormatter converts memvid CLI results to MCP response text.
// Each method covers one subcommand: it inspects the process outcome,
// decodes the CLI's JSON document and renders a human-readable summary.
// Failures come back as *Error values carrying the stage-specific code.
type ResultFormatter interface {
	// FormatStore renders the result of `memvid put`.
	FormatStore(result *CommandResult) (string, error)

	// FormatSearch renders the result of `memvid search`.
	FormatSearch(result *CommandResult) (string, error)

	// FormatTimeline renders the result of `memvid timeline`.
	FormatTimeline(result *CommandResult) (string, error)

	// FormatStats renders the result of `memvid stats`.
	FormatStats(result *CommandResult) (string, error)

	// FormatCreate renders the result of `memvid create`.
	FormatCreate(result *CommandResult) (string, error)
}

// previewLimit is the maximum number of characters of a timeline entry
// preview included in the rendered response.
const previewLimit = 100

// DefaultResultFormatter is the default implementation of ResultFormatter.
type DefaultResultFormatter struct{}

// NewResultFormatter creates a new instance of DefaultResultFormatter.
func NewResultFormatter() ResultFormatter {
	return &DefaultResultFormatter{}
}

// FormatStore renders `Stored in frame {frame_id}`.
func (f *DefaultResultFormatter) FormatStore(result *CommandResult) (string, error) {
	if !result.Success {
		return "", f.failureError(result)
	}

	var out StoreResult
	if err := f.decode(result, &out); err != nil {
		return "", err
	}

	return fmt.Sprintf("Stored in frame %d", out.FrameID), nil
}

// FormatSearch renders a header followed by a two-line block per hit.
func (f *DefaultResultFormatter) FormatSearch(result *CommandResult) (string, error) {
	if !result.Success {
		return "", f.failureError(result)
	}

	var out SearchResults
	if err := f.decode(result, &out); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results for %q:", out.TotalHits, out.Query)

	for _, hit := range out.Hits {
		label := hit.URI
		if hit.Title != nil && *hit.Title != "" {
			label = *hit.Title
		}
		fmt.Fprintf(&b, "\n\n**%s** (frame %d)\n%s", label, hit.FrameID, hit.Snippet)
	}

	return b.String(), nil
}

// FormatTimeline renders a header followed by a two-line block per entry.
// Timestamps are rendered as RFC 3339 UTC; previews are truncated to their
// first 100 characters followed by an ellipsis marker.
func (f *DefaultResultFormatter) FormatTimeline(result *CommandResult) (string, error) {
	if !result.Success {
		return "", f.failureError(result)
	}

	var out TimelineResults
	if err := f.decode(result, &out); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Memory contains %d entries:", out.Total)

	for _, entry := range out.Entries {
		label := fmt.Sprintf("frame-%d", entry.FrameID)
		if entry.URI != nil && *entry.URI != "" {
			label = *entry.URI
		}
		when := time.Unix(entry.Timestamp, 0).UTC().Format(time.RFC3339)
		fmt.Fprintf(&b, "\n\n**%s** (%s)\n%s", label, when, truncatePreview(entry.Preview))
	}

	return b.String(), nil
}

// FormatStats renders the fixed five-line statistics summary.
func (f *DefaultResultFormatter) FormatStats(result *CommandResult) (string, error) {
	if !result.Success {
		return "", f.failureError(result)
	}

	var out MemoryStats
	if err := f.decode(result, &out); err != nil {
		return "", err
	}

	lines := []string{
		fmt.Sprintf("Memory file: %s", out.Path),
		fmt.Sprintf("Frames: %d active / %d total", out.ActiveFrameCount, out.FrameCount),
		fmt.Sprintf("Size: %.1f KB", float64(out.SizeBytes)/1024),
		fmt.Sprintf("Full-text search: %s", enabledOrDisabled(out.HasLexIndex)),
		fmt.Sprintf("Vector search: %s", enabledOrDisabled(out.HasVecIndex)),
	}

	return strings.Join(lines, "\n"), nil
}

// FormatCreate renders `Created memory file: {path}`.
func (f *DefaultResultFormatter) FormatCreate(result *CommandResult) (string, error) {
	if !result.Success {
		return "", f.failureError(result)
	}

	var out CreateResult
	if err := f.decode(result, &out); err != nil {
		return "", err
	}

	return fmt.Sprintf("Created memory file: %s", out.Path), nil
}

// decode parses the CLI's stdout as JSON into v.
// Malformed or empty output is downgraded to an OutputParseError rather
// than a fault: one misbehaving subprocess must not take down the server.
func (f *DefaultResultFormatter) decode(result *CommandResult, v interface{}) error {
	trimmed := strings.TrimSpace(result.Stdout)
	if trimmed == "" {
		return &Error{
			Code:    OutputParseError,
			Message: "invalid output from memvid CLI: empty stdout",
		}
	}

	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		return &Error{
			Code:    OutputParseError,
			Message: fmt.Sprintf("invalid output from memvid CLI: %v", err),
		}
	}

	return nil
}

// failureError turns an unsuccessful process result into an *Error.
// The structured error field from the CLI's JSON document is preferred
// over the raw stderr stream when both are present.
func (f *DefaultResultFormatter) failureError(result *CommandResult) *Error {
	var out cliError
	if err := json.Unmarshal([]byte(result.Stdout), &out); err == nil && out.Error != "" {
		return &Error{
			Code:    ProcessExecutionError,
			Message: out.Error,
		}
	}

	// No JSON document on stdout. An empty stdout means the binary never
	// produced output, which is how a failed launch presents.
	code := ProcessExecutionError
	if strings.TrimSpace(result.Stdout) == "" {
		code = ProcessLaunchError
	}

	message := result.Stderr
	if message == "" {
		message = "memvid command failed"
	}

	return &Error{
		Code:    code,
		Message: message,
	}
}

// truncatePreview limits a preview to its first previewLimit characters
// and appends an ellipsis marker.
func truncatePreview(preview string) string {
	runes := []rune(preview)
	if len(runes) > previewLimit {
		runes = runes[:previewLimit]
	}
	return string(runes) + "..."
}

func enabledOrDisabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
