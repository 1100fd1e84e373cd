// Package transport exposes a pkg/host.Host over JSON-RPC2, mirroring
// the teacher's LSP proxy server texture but speaking directly to the
// virtual-file host instead of forwarding to a gopls subprocess.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MadAppGang/civetls/pkg/host"
	"github.com/MadAppGang/civetls/pkg/logging"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// ServerConfig holds configuration for the transport server.
type ServerConfig struct {
	Logger logging.Logger
	Host   *host.Host
}

// Server implements the JSON-RPC2 front end for the host: it feeds
// editor documents from didOpen/didChange into the host (didClose is
// acknowledged only). Position and diagnostic translation through the
// host's source maps is offered as Go methods (TranslatePosition,
// TranslateDiagnostics); no JSON-RPC method serves them.
type Server struct {
	config ServerConfig

	connMu  sync.RWMutex
	ideConn jsonrpc2.Conn
	ctx     context.Context

	initialized bool
}

// NewServer creates a new transport server bound to cfg.Host.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{config: cfg}
	cfg.Host.SetNotifyFunc(s.notifyChanged)
	return s
}

// SetConn stores the connection and context in the server (thread-safe).
func (s *Server) SetConn(conn jsonrpc2.Conn, ctx context.Context) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.ideConn = conn
	s.ctx = ctx
}

// GetConn returns the client connection (thread-safe).
func (s *Server) GetConn() (jsonrpc2.Conn, context.Context) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.ideConn, s.ctx
}

// Handler returns a jsonrpc2 handler for this server.
func (s *Server) Handler() jsonrpc2.Handler {
	return jsonrpc2.ReplyHandler(s.handleRequest)
}

func (s *Server) handleRequest(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.config.Logger.Debugf("transport: received request: %s", req.Method())

	switch req.Method() {
	case "initialize":
		return s.handleInitialize(ctx, reply, req)
	case "initialized":
		return reply(ctx, nil, nil)
	case "shutdown":
		return s.handleShutdown(ctx, reply, req)
	case "exit":
		return reply(ctx, nil, nil)
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, reply, req)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, reply, req)
	case "textDocument/didClose":
		return reply(ctx, nil, nil)
	default:
		s.config.Logger.Debugf("transport: method not implemented: %s", req.Method())
		return reply(ctx, nil, fmt.Errorf("method not implemented: %s", req.Method()))
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, fmt.Errorf("invalid initialize params: %w", err))
	}

	result := protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "civetls",
			Version: "0.1.0",
		},
	}

	s.initialized = true
	s.config.Logger.Infof("transport: initialized, tracking %d script files", len(s.config.Host.GetScriptFileNames()))

	return reply(ctx, result, nil)
}

func (s *Server) handleShutdown(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.config.Logger.Infof("transport: shutdown requested")
	s.initialized = false
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	s.config.Host.AddOrUpdateDocument(host.Document{
		URI:     params.TextDocument.URI.Filename(),
		Text:    params.TextDocument.Text,
		Version: int(params.TextDocument.Version),
	})

	return reply(ctx, nil, nil)
}

func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}

	// Full-document sync only: the last change carries the entire text.
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	s.config.Host.AddOrUpdateDocument(host.Document{
		URI:     params.TextDocument.URI.Filename(),
		Text:    text,
		Version: int(params.TextDocument.Version),
	})

	return reply(ctx, nil, nil)
}

// notifyChanged forwards a host cache invalidation to the connected
// client as workspace/didChangeWatchedFiles, when a connection exists.
func (s *Server) notifyChanged(path string) {
	conn, ctx := s.GetConn()
	if conn == nil {
		return
	}

	params := protocol.DidChangeWatchedFilesParams{
		Changes: []*protocol.FileEvent{
			{URI: uri.File(path), Type: protocol.FileChangeTypeChanged},
		},
	}

	if err := conn.Notify(ctx, "workspace/didChangeWatchedFiles", params); err != nil {
		s.config.Logger.Warnf("transport: failed to notify client of change to %s: %v", path, err)
	}
}
