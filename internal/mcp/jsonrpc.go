// Package mcp serves the analytics tools, plus site analysis and question
// answering, as an MCP server over stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/blackwell-systems/siteinsight/internal/agent"
	"github.com/blackwell-systems/siteinsight/internal/ask"
	"github.com/blackwell-systems/siteinsight/internal/logging"
	"github.com/blackwell-systems/siteinsight/internal/tools"
)

// maxLine caps a single JSON-RPC message.
const maxLine = 1 << 20

// Server is an MCP server speaking newline-delimited JSON-RPC 2.0.
type Server struct {
	tools   []toolDef
	byName  map[string]int
	methods map[string]methodFunc

	registry *tools.Registry
	agent    *agent.Agent
	answerer *ask.Answerer
	version  string
	logger   logging.Logger
}

type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     toolHandler
}

// toolHandler returns a string (sent as is) or a value sent as JSON text.
type toolHandler func(ctx context.Context, args json.RawMessage) (any, error)

type methodFunc func(ctx context.Context, params json.RawMessage) (any, *rpcError)

// NewServer exposes every registry tool. analyze_site and ask_question are
// added only when a and q are non-nil.
func NewServer(reg *tools.Registry, a *agent.Agent, q *ask.Answerer, version string) *Server {
	s := &Server{
		byName:   make(map[string]int),
		registry: reg,
		agent:    a,
		answerer: q,
		version:  version,
		logger:   logging.Discard(),
	}
	s.methods = map[string]methodFunc{
		"initialize": s.initialize,
		"tools/list": s.listTools,
		"tools/call": s.toolsCall,
		"ping": func(context.Context, json.RawMessage) (any, *rpcError) {
			return map[string]any{}, nil
		},
	}
	addTools(s)
	return s
}

// WithLogger sets the logger used for tool call diagnostics.
func (s *Server) WithLogger(l logging.Logger) *Server {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Server) registerTool(def toolDef) {
	s.byName[def.Name] = len(s.tools)
	s.tools = append(s.tools, def)
}

type inbound struct {
	line []byte
	err  error
}

// Run serves requests from r, writing responses to w, until ctx is
// cancelled or r reaches EOF. Both return nil; read and write failures are
// returned as errors.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	in := make(chan inbound)

	go func() {
		defer close(in)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLine)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case in <- inbound{line: line}:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			select {
			case in <- inbound{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			if msg.err != nil {
				return fmt.Errorf("reading request: %w", msg.err)
			}
			if err := s.handle(ctx, msg.line, bw); err != nil {
				return err
			}
		}
	}
}

// handle dispatches one message. Notifications get no response.
func (s *Server) handle(ctx context.Context, line []byte, bw *bufio.Writer) error {
	var req rpcRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return writeMessage(bw, rpcResponse{Error: &rpcError{Code: codeParseError, Message: "Parse error"}})
	}
	if req.ID == nil {
		return nil
	}

	resp := rpcResponse{ID: req.ID}
	method, ok := s.methods[req.Method]
	if !ok {
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "Method not found"}
		return writeMessage(bw, resp)
	}
	resp.Result, resp.Error = method(ctx, req.Params)
	return writeMessage(bw, resp)
}

func (s *Server) initialize(context.Context, json.RawMessage) (any, *rpcError) {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo":      map[string]any{"name": "siteinsight", "version": s.version},
	}, nil
}

func (s *Server) listTools(context.Context, json.RawMessage) (any, *rpcError) {
	entries := make([]toolListEntry, len(s.tools))
	for i, t := range s.tools {
		entries[i] = toolListEntry{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	}
	return map[string]any{"tools": entries}, nil
}

func (s *Server) toolsCall(ctx context.Context, raw json.RawMessage) (any, *rpcError) {
	var params toolsCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid params"}
	}
	return s.callTool(ctx, params), nil
}

// callTool runs a tool. Failures, including unknown names, become error
// results.
func (s *Server) callTool(ctx context.Context, params toolsCallParams) toolsCallResult {
	i, ok := s.byName[params.Name]
	if !ok {
		return errorResult(fmt.Sprintf("Unknown tool: %s", params.Name))
	}
	args := params.Arguments
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}

	result, err := s.tools[i].Handler(ctx, args)
	if err != nil {
		s.logger.WithField("tool", params.Name).WithError(err).Warn("tool call failed")
		return errorResult(err.Error())
	}
	if text, ok := result.(string); ok {
		return textResult(text)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(string(data))
}
