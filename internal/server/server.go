package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/kolam-tools-mcp/internal/dataset"
	"github.com/ironsheep/kolam-tools-mcp/internal/digitize"
	"github.com/ironsheep/kolam-tools-mcp/internal/generator"
	"github.com/ironsheep/kolam-tools-mcp/internal/library"
)

const (
	serverName    = "kolam-tools-mcp"
	serverVersion = "0.1.0"

	// maxRequestSize bounds one JSON-RPC line; base64 photos make requests
	// much larger than typical tool calls.
	maxRequestSize = 32 * 1024 * 1024
)

// Options wires the server to its components. Nil generator and digitizer
// are replaced with defaults over the built-in dataset; a nil store
// disables the library tools.
type Options struct {
	Generator *generator.Generator
	Digitizer *digitize.Digitizer
	Store     *library.Store
	Debug     bool
}

// Server handles MCP protocol communication
type Server struct {
	gen   *generator.Generator
	dig   *digitize.Digitizer
	store *library.Store
	debug bool
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	gen := opts.Generator
	if gen == nil {
		gen = generator.New(dataset.Default(), generator.Options{Debug: opts.Debug})
	}
	dig := opts.Digitizer
	if dig == nil {
		dig = digitize.New(gen, digitize.Options{Debug: opts.Debug})
	}
	return &Server{
		gen:   gen,
		dig:   dig,
		store: opts.Store,
		debug: opts.Debug,
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited requests from r and writes responses to w
// until r is exhausted or ctx is cancelled. When r is an io.Closer it is
// closed on cancellation, so a read blocked on an idle client returns.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	if c, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxRequestSize)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	if s.debug {
		log.Printf("server: %s id=%v", req.Method, req.ID)
	}
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    serverName,
				"version": serverVersion,
			},
		},
	}
}
