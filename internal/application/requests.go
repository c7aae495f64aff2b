package application

import (
	"strconv"

	"memvid-mcp-server/internal/domain"
)

// One typed request per tool, built by a single validating parse step
// from the raw argument bag. Each carries its resolved memory file path
// and compiles itself into the exact memvid argument vector. Compilation
// is pure and deterministic; validation happens only during parsing.

// rememberRequest maps to `memvid put`.
type rememberRequest struct {
	path    string
	content string
	uri     string
	title   string
	tags    []string
}

func parseRememberRequest(args map[string]interface{}, memvid *domain.MemvidConfig) (*rememberRequest, error) {
	content, err := getStringParam(args, "content", true)
	if err != nil {
		return nil, err
	}
	explicit, err := getStringParam(args, "path", false)
	if err != nil {
		return nil, err
	}
	path, err := memvid.ResolvePath(explicit)
	if err != nil {
		return nil, err
	}
	uri, err := getStringParam(args, "uri", false)
	if err != nil {
		return nil, err
	}
	title, err := getStringParam(args, "title", false)
	if err != nil {
		return nil, err
	}
	tags, err := getStringSliceParam(args, "tags")
	if err != nil {
		return nil, err
	}

	return &rememberRequest{
		path:    path,
		content: content,
		uri:     uri,
		title:   title,
		tags:    tags,
	}, nil
}

func (r *rememberRequest) args() []string {
	argv := []string{"put", r.path}
	if r.content != "" {
		argv = append(argv, "--content", r.content)
	}
	if r.uri != "" {
		argv = append(argv, "--uri", r.uri)
	}
	if r.title != "" {
		argv = append(argv, "--title", r.title)
	}
	// One repeated flag per tag, input order preserved, no de-duplication.
	for _, tag := range r.tags {
		argv = append(argv, "-t", tag)
	}
	return argv
}

// recallRequest maps to `memvid search`.
type recallRequest struct {
	path  string
	query string
	scope string
	limit *int
}

func parseRecallRequest(args map[string]interface{}, memvid *domain.MemvidConfig) (*recallRequest, error) {
	query, err := getStringParam(args, "query", true)
	if err != nil {
		return nil, err
	}
	explicit, err := getStringParam(args, "path", false)
	if err != nil {
		return nil, err
	}
	path, err := memvid.ResolvePath(explicit)
	if err != nil {
		return nil, err
	}
	scope, err := getStringParam(args, "scope", false)
	if err != nil {
		return nil, err
	}
	limit, err := getIntParam(args, "limit")
	if err != nil {
		return nil, err
	}

	return &recallRequest{
		path:  path,
		query: query,
		scope: scope,
		limit: limit,
	}, nil
}

func (r *recallRequest) args() []string {
	argv := []string{"search", r.path, r.query}
	if r.scope != "" {
		argv = append(argv, "--scope", r.scope)
	}
	if r.limit != nil {
		argv = append(argv, "--limit", strconv.Itoa(*r.limit))
	}
	return argv
}

// listRequest maps to `memvid timeline`.
type listRequest struct {
	path  string
	limit *int
	since *int64
	until *int64
}

func parseListRequest(args map[string]interface{}, memvid *domain.MemvidConfig) (*listRequest, error) {
	explicit, err := getStringParam(args, "path", false)
	if err != nil {
		return nil, err
	}
	path, err := memvid.ResolvePath(explicit)
	if err != nil {
		return nil, err
	}
	limit, err := getIntParam(args, "limit")
	if err != nil {
		return nil, err
	}
	since, err := getInt64Param(args, "since")
	if err != nil {
		return nil, err
	}
	until, err := getInt64Param(args, "until")
	if err != nil {
		return nil, err
	}

	return &listRequest{
		path:  path,
		limit: limit,
		since: since,
		until: until,
	}, nil
}

func (r *listRequest) args() []string {
	argv := []string{"timeline", r.path}
	if r.limit != nil {
		argv = append(argv, "--limit", strconv.Itoa(*r.limit))
	}
	if r.since != nil {
		argv = append(argv, "--since", strconv.FormatInt(*r.since, 10))
	}
	if r.until != nil {
		argv = append(argv, "--until", strconv.FormatInt(*r.until, 10))
	}
	return argv
}

// statsRequest maps to `memvid stats`.
type statsRequest struct {
	path string
}

func parseStatsRequest(args map[string]interface{}, memvid *domain.MemvidConfig) (*statsRequest, error) {
	explicit, err := getStringParam(args, "path", false)
	if err != nil {
		return nil, err
	}
	path, err := memvid.ResolvePath(explicit)
	if err != nil {
		return nil, err
	}

	return &statsRequest{path: path}, nil
}

func (r *statsRequest) args() []string {
	return []string{"stats", r.path}
}

// createRequest maps to `memvid create`. This is the one tool that
// mandates a caller-supplied path; the process-wide default is never
// consulted.
type createRequest struct {
	path string
}

func parseCreateRequest(args map[string]interface{}) (*createRequest, error) {
	path, err := getStringParam(args, "path", true)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "missing required parameter: path",
		}
	}

	return &createRequest{path: path}, nil
}

func (r *createRequest) args() []string {
	return []string{"create", r.path}
}
