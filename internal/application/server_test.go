package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"memvid-mcp-server/internal/domain"
)

// mockTransport is a mock implementation of domain.Transport for testing.
type mockTransport struct {
	mu        sync.Mutex
	reqChan   chan *domain.Request
	responses []*domain.Response
	closed    bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		reqChan: make(chan *domain.Request, 10),
	}
}

func (m *mockTransport) Start(ctx context.Context) error {
	return nil
}

func (m *mockTransport) Send(response *domain.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
	return nil
}

func (m *mockTransport) Receive() <-chan *domain.Request {
	return m.reqChan
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.reqChan)
	}
	return nil
}

// waitForResponse polls until the transport has recorded at least n
// responses; requests are served on their own goroutines.
func (m *mockTransport) waitForResponse(t *testing.T, n int) *domain.Response {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		if len(m.responses) >= n {
			resp := m.responses[n-1]
			m.mu.Unlock()
			return resp
		}
		m.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for response")
	return nil
}

// createTestServer wires a server with a real router and memory handler
// backed by a fake runner.
func createTestServer(result *domain.CommandResult) (*Server, *mockTransport, *fakeRunner) {
	transport := newMockTransport()
	runner := &fakeRunner{result: result}
	handler := NewMemoryHandler(runner, domain.NewResultFormatter(), &domain.MemvidConfig{
		DefaultPath: "/m.mv2",
	})
	router := NewRequestRouter(handler)
	config := &domain.Config{Transport: domain.TransportConfig{Type: "stdio"}}
	return NewServer(transport, router, config), transport, runner
}

func startTestServer(t *testing.T, server *Server) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	if err := server.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start failed: %v", err)
	}
	return cancel
}

func TestServerInitialize(t *testing.T) {
	server, transport, _ := createTestServer(nil)
	cancel := startTestServer(t, server)
	defer cancel()

	transport.reqChan <- &domain.Request{JSONRPC: "2.0", ID: 1, Method: "initialize"}

	resp := transport.waitForResponse(t, 1)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected result type: %T", resp.Result)
	}
	if result["protocolVersion"] != ProtocolVersion {
		t.Errorf("protocolVersion = %v", result["protocolVersion"])
	}
	serverInfo := result["serverInfo"].(map[string]interface{})
	if serverInfo["name"] != ServerName {
		t.Errorf("server name = %v, want %s", serverInfo["name"], ServerName)
	}
}

func TestServerToolsList(t *testing.T) {
	server, transport, _ := createTestServer(nil)
	cancel := startTestServer(t, server)
	defer cancel()

	transport.reqChan <- &domain.Request{JSONRPC: "2.0", ID: 2, Method: "tools/list"}

	resp := transport.waitForResponse(t, 1)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	result := resp.Result.(map[string]interface{})
	tools := result["tools"].([]domain.ToolDefinition)
	if len(tools) != 5 {
		t.Errorf("expected 5 tools, got %d", len(tools))
	}
}

func TestServerToolsCallSuccess(t *testing.T) {
	server, transport, runner := createTestServer(&domain.CommandResult{
		Success: true,
		Stdout:  `{"frame_id": 7}`,
	})
	cancel := startTestServer(t, server)
	defer cancel()

	transport.reqChan <- &domain.Request{
		JSONRPC: "2.0",
		ID:      3,
		Method:  "tools/call",
		Params: map[string]interface{}{
			"name":      "memory_remember",
			"arguments": map[string]interface{}{"content": "x"},
		},
	}

	resp := transport.waitForResponse(t, 1)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	toolResp, ok := resp.Result.(*domain.ToolResponse)
	if !ok {
		t.Fatalf("unexpected result type: %T", resp.Result)
	}
	if toolResp.Content[0].Text != "Stored in frame 7" {
		t.Errorf("text = %q", toolResp.Content[0].Text)
	}
	if runner.callCount() != 1 {
		t.Errorf("runner invoked %d times", runner.callCount())
	}
}

func TestServerToolsCallUnknownToolIsAResult(t *testing.T) {
	server, transport, runner := createTestServer(nil)
	cancel := startTestServer(t, server)
	defer cancel()

	transport.reqChan <- &domain.Request{
		JSONRPC: "2.0",
		ID:      4,
		Method:  "tools/call",
		Params: map[string]interface{}{
			"name":      "disk_erase",
			"arguments": map[string]interface{}{},
		},
	}

	resp := transport.waitForResponse(t, 1)

	// Never a JSON-RPC error: the failure travels inside the tool response.
	if resp.Error != nil {
		t.Fatalf("unknown tool must not produce a JSON-RPC error: %+v", resp.Error)
	}

	toolResp := resp.Result.(*domain.ToolResponse)
	if toolResp.Content[0].Text != "Unknown tool: disk_erase" {
		t.Errorf("text = %q", toolResp.Content[0].Text)
	}
	if !toolResp.IsError {
		t.Error("IsError should be set")
	}
	if runner.callCount() != 0 {
		t.Error("no subprocess may be spawned for an unknown tool")
	}
}

func TestServerToolsCallFailureIsAResult(t *testing.T) {
	server, transport, _ := createTestServer(&domain.CommandResult{
		Success: false,
		Stdout:  `{"error":"File not found"}`,
	})
	cancel := startTestServer(t, server)
	defer cancel()

	transport.reqChan <- &domain.Request{
		JSONRPC: "2.0",
		ID:      5,
		Method:  "tools/call",
		Params: map[string]interface{}{
			"name":      "memory_stats",
			"arguments": map[string]interface{}{},
		},
	}

	resp := transport.waitForResponse(t, 1)
	if resp.Error != nil {
		t.Fatalf("tool failure must not produce a JSON-RPC error: %+v", resp.Error)
	}

	toolResp := resp.Result.(*domain.ToolResponse)
	if toolResp.Content[0].Text != "Error: File not found" {
		t.Errorf("text = %q", toolResp.Content[0].Text)
	}
}

func TestServerUnknownMethod(t *testing.T) {
	server, transport, _ := createTestServer(nil)
	cancel := startTestServer(t, server)
	defer cancel()

	transport.reqChan <- &domain.Request{JSONRPC: "2.0", ID: 6, Method: "resources/list"}

	resp := transport.waitForResponse(t, 1)
	if resp.Error == nil || resp.Error.Code != domain.MethodNotFound {
		t.Errorf("expected MethodNotFound, got %+v", resp.Error)
	}
}

func TestServerToolsCallMissingParams(t *testing.T) {
	server, transport, _ := createTestServer(nil)
	cancel := startTestServer(t, server)
	defer cancel()

	transport.reqChan <- &domain.Request{JSONRPC: "2.0", ID: 7, Method: "tools/call"}

	resp := transport.waitForResponse(t, 1)
	if resp.Error == nil || resp.Error.Code != domain.InvalidParams {
		t.Errorf("expected InvalidParams, got %+v", resp.Error)
	}
}

func TestServerInvalidVersion(t *testing.T) {
	server, transport, _ := createTestServer(nil)
	cancel := startTestServer(t, server)
	defer cancel()

	transport.reqChan <- &domain.Request{JSONRPC: "1.0", ID: 8, Method: "initialize"}

	resp := transport.waitForResponse(t, 1)
	if resp.Error == nil || resp.Error.Code != domain.InvalidRequest {
		t.Errorf("expected InvalidRequest, got %+v", resp.Error)
	}
}

func TestServerConcurrentCallsDoNotBlockEachOther(t *testing.T) {
	// A runner that blocks until released simulates a hung subprocess.
	release := make(chan struct{})
	blockingRunner := &blockingFakeRunner{release: release}

	transport := newMockTransport()
	handler := NewMemoryHandler(blockingRunner, domain.NewResultFormatter(), &domain.MemvidConfig{
		DefaultPath: "/m.mv2",
	})
	router := NewRequestRouter(handler)
	config := &domain.Config{Transport: domain.TransportConfig{Type: "stdio"}}
	server := NewServer(transport, router, config)

	cancel := startTestServer(t, server)
	defer cancel()

	// First call hangs in the runner.
	transport.reqChan <- &domain.Request{
		JSONRPC: "2.0",
		ID:      9,
		Method:  "tools/call",
		Params: map[string]interface{}{
			"name":      "memory_stats",
			"arguments": map[string]interface{}{},
		},
	}

	// Second call must complete while the first is still blocked.
	transport.reqChan <- &domain.Request{JSONRPC: "2.0", ID: 10, Method: "tools/list"}

	resp := transport.waitForResponse(t, 1)
	if resp.Error != nil {
		t.Fatalf("tools/list failed: %+v", resp.Error)
	}
	if _, ok := resp.Result.(map[string]interface{}); !ok {
		t.Errorf("expected tools/list result first, got %T", resp.Result)
	}

	close(release)
	transport.waitForResponse(t, 2)
}

type blockingFakeRunner struct {
	release chan struct{}
}

func (r *blockingFakeRunner) Run(ctx context.Context, args []string) *domain.CommandResult {
	<-r.release
	return &domain.CommandResult{Success: true, Stdout: `{"path":"/m.mv2","frame_count":0,"active_frame_count":0,"size_bytes":0,"has_lex_index":false,"has_vec_index":false}`}
}
