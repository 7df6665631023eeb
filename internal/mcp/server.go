package mcp

import (
	"bufio"
	"context"
	"io"

	"ckb/internal/embed"
	"ckb/internal/health"
	"ckb/internal/jobs"
	"ckb/internal/logging"
	"ckb/internal/query"
	"ckb/internal/store"
	"ckb/internal/tags"
)

// MCPServer serves the §6 MCP tool surface over a stdio JSON-RPC 2.0
// transport (protocol.go/transport.go, unchanged from the teacher).
type MCPServer struct {
	stdin   io.Reader
	stdout  io.Writer
	scanner *bufio.Scanner
	logger  *logging.Logger
	version string

	store     *store.Store
	jobs      *jobs.Store
	retriever *query.Retriever
	embedder  *embed.Embedder
	tags      *tags.Syncer
	health    *health.Monitor

	tools map[string]Tool
}

// Deps bundles the control-plane components the MCP tool handlers call
// into — the same components cmd/ckb's stack builds for one-shot CLI
// commands, so `ckb serve` and `ckb search` read the exact same schemas.
type Deps struct {
	Store     *store.Store
	Jobs      *jobs.Store
	Retriever *query.Retriever
	Embedder  *embed.Embedder
	Tags      *tags.Syncer
	Health    *health.Monitor
}

// NewMCPServer builds an MCP server bound to stdin/stdout and deps.
func NewMCPServer(stdin io.Reader, stdout io.Writer, logger *logging.Logger, version string, deps Deps) *MCPServer {
	s := &MCPServer{
		stdin:     stdin,
		stdout:    stdout,
		logger:    logger,
		version:   version,
		store:     deps.Store,
		jobs:      deps.Jobs,
		retriever: deps.Retriever,
		embedder:  deps.Embedder,
		tags:      deps.Tags,
		health:    deps.Health,
	}
	s.tools = make(map[string]Tool)
	for _, t := range toolDefinitions() {
		s.tools[t.Name] = t
	}
	return s
}

// Run reads and dispatches JSON-RPC messages until stdin is closed or ctx
// is cancelled.
func (s *MCPServer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		s.handleMessage(ctx, msg)
	}
}
