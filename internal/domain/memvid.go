package domain

// JSON document shapes emitted by the memvid CLI on stdout. Every
// invocation prints exactly one document; on failure (any exit code other
// than zero) the document is {"error": "..."}. Fields the server never
// renders (success, message, elapsed_ms, score) are omitted from the
// decoders and ignored.

// StoreResult is the output of `memvid put`.
type StoreResult struct {
	FrameID uint64 `json:"frame_id"`
}

// SearchResults is the output of `memvid search`.
type SearchResults struct {
	Query     string      `json:"query"`
	TotalHits int         `json:"total_hits"`
	Hits      []SearchHit `json:"hits"`
}

// SearchHit is a single search result. Title is nullable in the CLI
// output; renderings fall back to the URI.
type SearchHit struct {
	FrameID uint64  `json:"frame_id"`
	URI     string  `json:"uri"`
	Title   *string `json:"title"`
	Snippet string  `json:"snippet"`
}

// TimelineResults is the output of `memvid timeline`.
type TimelineResults struct {
	Total   int             `json:"total"`
	Entries []TimelineEntry `json:"entries"`
}

// TimelineEntry is a single chronological entry. Timestamp is Unix
// seconds; URI is nullable.
type TimelineEntry struct {
	FrameID   uint64  `json:"frame_id"`
	Timestamp int64   `json:"timestamp"`
	URI       *string `json:"uri"`
	Preview   string  `json:"preview"`
}

// MemoryStats is the output of `memvid stats`.
type MemoryStats struct {
	Path             string `json:"path"`
	FrameCount       uint64 `json:"frame_count"`
	ActiveFrameCount uint64 `json:"active_frame_count"`
	SizeBytes        uint64 `json:"size_bytes"`
	HasLexIndex      bool   `json:"has_lex_index"`
	HasVecIndex      bool   `json:"has_vec_index"`
}

// CreateResult is the output of `memvid create`.
type CreateResult struct {
	Path string `json:"path"`
}

// cliError is the failure document shared by every subcommand.
type cliError struct {
	Error string `json:"error"`
}
