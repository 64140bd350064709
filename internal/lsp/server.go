package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chris-regnier/mallet/internal/cache"
	"github.com/chris-regnier/mallet/internal/config"
	"github.com/chris-regnier/mallet/internal/parse"
	"github.com/chris-regnier/mallet/internal/sarif"
)

// LintFunc lints the text of one document.
type LintFunc func(ctx context.Context, path, content string) ([]sarif.Result, error)

// FixFunc returns the corrected text of one document and whether it
// differs from content.
type FixFunc func(ctx context.Context, path, content string) (string, bool, error)

// resultsCacheEntry holds the last lint of a document
type resultsCacheEntry struct {
	content     string
	results     []sarif.Result
	diagnostics []Diagnostic
}

// ServerConfig holds configuration for the LSP server
type ServerConfig struct {
	DebounceDuration time.Duration
	ParallelFiles    int
	WatchPatterns    []string
	IgnorePatterns   []string
	Version          string
}

// DefaultServerConfig returns sensible defaults. With no watch patterns
// every file with a known language is linted.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		DebounceDuration: 300 * time.Millisecond,
		ParallelFiles:    3,
		IgnorePatterns: []string{
			"**/node_modules/**", "**/.git/**", "**/vendor/**",
		},
		Version: "dev",
	}
}

// ServerConfigFromConfig derives the server configuration from a loaded
// mallet configuration. Bare excluded names match a directory anywhere
// in the path.
func ServerConfigFromConfig(cfg *config.Config) ServerConfig {
	sc := DefaultServerConfig()
	if cfg == nil {
		return sc
	}
	if d := cfg.WatchDebounce(); d > 0 {
		sc.DebounceDuration = d
	}
	if cfg.Jobs > 0 {
		sc.ParallelFiles = cfg.Jobs
	}
	if len(cfg.Excluded) > 0 {
		sc.IgnorePatterns = make([]string, 0, len(cfg.Excluded))
		for _, ex := range cfg.Excluded {
			if strings.ContainsAny(ex, "*/") {
				sc.IgnorePatterns = append(sc.IgnorePatterns, ex)
				continue
			}
			sc.IgnorePatterns = append(sc.IgnorePatterns, "**/"+ex+"/**")
		}
	}
	return sc
}

// Server implements an LSP server
type Server struct {
	reader  *bufio.Reader
	writer  *bufio.Writer
	writeMu sync.Mutex

	lint LintFunc
	fix  FixFunc

	// URI -> content
	documents map[string]string
	docMu     sync.RWMutex

	resultsCache map[string]resultsCacheEntry
	resultsMu    sync.RWMutex

	watcher      *DebouncedWatcher
	cacheManager cache.CacheManager
	progress     *ProgressReporter
	commands     *CommandHandler
	config       ServerConfig

	requestID   atomic.Int64
	rootURI     string
	initialized atomic.Bool
}

// NewServer creates a new LSP server with default configuration
func NewServer(reader *bufio.Reader, writer *bufio.Writer, lint LintFunc, fix FixFunc) *Server {
	return NewServerWithConfig(reader, writer, lint, fix, DefaultServerConfig())
}

// NewServerWithConfig creates a new LSP server with custom configuration.
// fix may be nil, in which case no corrections are offered.
func NewServerWithConfig(reader *bufio.Reader, writer *bufio.Writer, lint LintFunc, fix FixFunc, cfg ServerConfig) *Server {
	s := &Server{
		reader:       reader,
		writer:       writer,
		lint:         lint,
		fix:          fix,
		documents:    make(map[string]string),
		resultsCache: make(map[string]resultsCacheEntry),
		config:       cfg,
	}

	s.progress = NewProgressReporter(s.sendRequest, s.sendNotification)
	s.commands = NewCommandHandler(s)

	watcherConfig := WatcherConfig{
		DebounceDuration: cfg.DebounceDuration,
		ParallelFiles:    cfg.ParallelFiles,
		WatchPatterns:    cfg.WatchPatterns,
		IgnorePatterns:   cfg.IgnorePatterns,
	}
	s.watcher = NewDebouncedWatcherWithConfig(watcherConfig, func(uris []string) {
		for _, uri := range uris {
			if content, ok := s.document(uri); ok {
				s.lintAndPublish(context.Background(), uri, content)
			}
		}
	})

	return s
}

// SetCacheManager sets the cache that mallet.clearCache empties
func (s *Server) SetCacheManager(c cache.CacheManager) {
	s.cacheManager = c
}

// jsonRPCMessage represents a JSON-RPC 2.0 message
type jsonRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   interface{}     `json:"error,omitempty"`
}

// Run reads and handles messages until the client exits, the input ends
// or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer s.watcher.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.handleMessage(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return err
			}
			slog.Error("error handling message", "err", err)
		}
	}
}

// readMessage reads one framed message. Headers other than
// Content-Length are ignored.
func (s *Server) readMessage() ([]byte, error) {
	length := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header: %s", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid content length: %s", value)
			}
			length = n
		}
	}
	if length < 0 {
		return nil, errors.New("missing Content-Length header")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// handleMessage reads and processes a single JSON-RPC message
func (s *Server) handleMessage(ctx context.Context) error {
	buf, err := s.readMessage()
	if err != nil {
		return err
	}

	var msg jsonRPCMessage
	if err := json.Unmarshal(buf, &msg); err != nil {
		return fmt.Errorf("failed to parse JSON-RPC message: %w", err)
	}

	switch msg.Method {
	case "":
		// a response to one of our requests
		return nil
	case MethodInitialize:
		return s.handleInitialize(msg.ID, msg.Params)
	case MethodInitialized:
		s.initialized.Store(true)
		return nil
	case MethodTextDocumentDidOpen:
		return s.handleDidOpen(msg.Params)
	case MethodTextDocumentDidChange:
		return s.handleDidChange(msg.Params)
	case MethodTextDocumentDidSave:
		return s.handleDidSave(msg.Params)
	case MethodTextDocumentDidClose:
		return s.handleDidClose(msg.Params)
	case MethodTextDocumentCodeAction:
		return s.handleCodeAction(ctx, msg.ID, msg.Params)
	case MethodWorkspaceExecuteCommand:
		return s.handleExecuteCommand(ctx, msg.ID, msg.Params)
	case MethodWorkspaceDidChangeConfig:
		return s.handleDidChangeConfiguration(msg.Params)
	case MethodShutdown:
		return s.handleShutdown(msg.ID)
	case MethodExit:
		return io.EOF
	default:
		if msg.ID != nil {
			return s.sendResponse(msg.ID, nil, rpcError(-32601, "method not found: "+msg.Method))
		}
		slog.Debug("unhandled LSP notification", "method", msg.Method)
		return nil
	}
}

func rpcError(code int, message string) map[string]interface{} {
	return map[string]interface{}{"code": code, "message": message}
}

// handleInitialize processes the initialize request
func (s *Server) handleInitialize(id interface{}, params json.RawMessage) error {
	var initParams InitializeParams
	if err := json.Unmarshal(params, &initParams); err != nil {
		return s.sendResponse(id, nil, rpcError(-32602, fmt.Sprintf("invalid params: %v", err)))
	}

	s.rootURI = initParams.RootURI

	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    1,
				Save:      true,
			},
			CodeActionProvider: true,
			ExecuteCommandProvider: &ExecuteCommandOptions{
				Commands: []string{
					CommandLintFile,
					CommandLintWorkspace,
					CommandFixFile,
					CommandClearCache,
				},
			},
		},
		ServerInfo: &ServerInfo{
			Name:    "mallet-lsp",
			Version: s.config.Version,
		},
	}

	return s.sendResponse(id, result, nil)
}

func (s *Server) document(uri string) (string, bool) {
	s.docMu.RLock()
	defer s.docMu.RUnlock()
	content, ok := s.documents[uri]
	return content, ok
}

func (s *Server) setDocument(uri, content string) {
	s.docMu.Lock()
	s.documents[uri] = content
	s.docMu.Unlock()
}

// openDocuments returns a copy of the tracked documents
func (s *Server) openDocuments() map[string]string {
	s.docMu.RLock()
	defer s.docMu.RUnlock()
	docs := make(map[string]string, len(s.documents))
	for uri, content := range s.documents {
		docs[uri] = content
	}
	return docs
}

// handleDidOpen processes textDocument/didOpen notification
func (s *Server) handleDidOpen(params json.RawMessage) error {
	var p DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}

	uri := p.TextDocument.URI
	if !s.shouldAnalyze(uri) {
		return nil
	}
	s.setDocument(uri, p.TextDocument.Text)
	s.watcher.FileChanged(uri)
	return nil
}

// handleDidChange processes textDocument/didChange notification. With
// full sync the last change holds the whole text.
func (s *Server) handleDidChange(params json.RawMessage) error {
	var p DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}

	uri := p.TextDocument.URI
	if len(p.ContentChanges) == 0 || !s.shouldAnalyze(uri) {
		return nil
	}
	s.setDocument(uri, p.ContentChanges[len(p.ContentChanges)-1].Text)
	s.watcher.FileChanged(uri)
	return nil
}

// handleDidSave processes textDocument/didSave notification
func (s *Server) handleDidSave(params json.RawMessage) error {
	var p DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}

	uri := p.TextDocument.URI
	if !s.shouldAnalyze(uri) {
		return nil
	}
	if p.Text != nil {
		s.setDocument(uri, *p.Text)
	}
	s.watcher.FileChanged(uri)
	return nil
}

// handleDidClose processes textDocument/didClose notification
func (s *Server) handleDidClose(params json.RawMessage) error {
	var p DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}

	uri := p.TextDocument.URI

	s.docMu.Lock()
	delete(s.documents, uri)
	s.docMu.Unlock()

	s.resultsMu.Lock()
	delete(s.resultsCache, uri)
	s.resultsMu.Unlock()

	return s.publishDiagnostics(uri, []Diagnostic{})
}

// handleShutdown processes the shutdown request
func (s *Server) handleShutdown(id interface{}) error {
	s.watcher.Stop()
	return s.sendResponse(id, nil, nil)
}

// handleCodeAction processes textDocument/codeAction requests
func (s *Server) handleCodeAction(ctx context.Context, id interface{}, params json.RawMessage) error {
	var p CodeActionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return s.sendResponse(id, nil, rpcError(-32602, fmt.Sprintf("invalid params: %v", err)))
	}

	uri := p.TextDocument.URI

	s.resultsMu.RLock()
	entry, ok := s.resultsCache[uri]
	s.resultsMu.RUnlock()
	if !ok {
		return s.sendResponse(id, []CodeAction{}, nil)
	}

	relevant := FilterDiagnosticsForRange(entry.diagnostics, p.Range)
	if len(relevant) == 0 {
		return s.sendResponse(id, []CodeAction{}, nil)
	}

	path := uriToPath(uri)
	fixed := entry.content
	if s.fix != nil {
		text, changed, err := s.fix(ctx, path, entry.content)
		if err != nil {
			slog.Warn("computing corrections failed", "uri", uri, "err", err)
		} else if changed {
			fixed = text
		}
	}

	var lineComment string
	if lang, ok := parse.Detect(path); ok {
		lineComment = lang.LineComment
	}

	actions := GetCodeActions(uri, entry.content, fixed, lineComment, relevant)
	if actions == nil {
		actions = []CodeAction{}
	}
	return s.sendResponse(id, actions, nil)
}

// handleExecuteCommand processes workspace/executeCommand requests
func (s *Server) handleExecuteCommand(ctx context.Context, id interface{}, params json.RawMessage) error {
	var p ExecuteCommandParams
	if err := json.Unmarshal(params, &p); err != nil {
		return s.sendResponse(id, nil, rpcError(-32602, fmt.Sprintf("invalid params: %v", err)))
	}

	result, err := s.commands.Execute(ctx, p)
	if err != nil {
		return s.sendResponse(id, nil, rpcError(-32603, err.Error()))
	}
	return s.sendResponse(id, result, nil)
}

// handleDidChangeConfiguration processes workspace/didChangeConfiguration
// notifications. Settings that fail to decode are ignored.
func (s *Server) handleDidChangeConfiguration(params json.RawMessage) error {
	var p DidChangeConfigurationParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}

	raw, err := json.Marshal(p.Settings)
	if err != nil {
		return nil
	}
	var byKey map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byKey); err == nil {
		if nested, ok := byKey["mallet"]; ok {
			raw = nested
		}
	}

	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil
	}

	update := WatcherConfig{
		ParallelFiles:  settings.ParallelFiles,
		WatchPatterns:  settings.WatchPatterns,
		IgnorePatterns: settings.IgnorePatterns,
	}
	if settings.DebounceDuration != "" {
		if d, err := time.ParseDuration(settings.DebounceDuration); err == nil {
			update.DebounceDuration = d
		}
	}
	s.watcher.UpdateConfig(update)
	return nil
}

// lintAndPublish lints a document and publishes its diagnostics. Results
// for a document closed while it was being linted are dropped.
func (s *Server) lintAndPublish(ctx context.Context, uri, content string) {
	results, err := s.lint(ctx, uriToPath(uri), content)
	if err != nil {
		slog.Error("lint failed", "uri", uri, "err", err)
		return
	}

	diagnostics := SarifResultsToDiagnostics(results, content)

	// held through publishing so a concurrent didClose publishes last
	s.docMu.RLock()
	defer s.docMu.RUnlock()
	if _, open := s.documents[uri]; !open {
		slog.Debug("dropping results for closed document", "uri", uri)
		return
	}

	s.resultsMu.Lock()
	s.resultsCache[uri] = resultsCacheEntry{
		content:     content,
		results:     results,
		diagnostics: diagnostics,
	}
	s.resultsMu.Unlock()

	if err := s.publishDiagnostics(uri, diagnostics); err != nil {
		slog.Error("failed to publish diagnostics", "uri", uri, "err", err)
	}
}

// shouldAnalyze reports whether uri has a known language and passes the
// watcher's current patterns.
func (s *Server) shouldAnalyze(uri string) bool {
	if _, ok := parse.Detect(uriToPath(uri)); !ok {
		return false
	}
	return s.watcher.ShouldWatch(uri)
}

// publishDiagnostics sends a textDocument/publishDiagnostics notification
func (s *Server) publishDiagnostics(uri string, diagnostics []Diagnostic) error {
	return s.sendNotification(MethodTextDocumentPublishDiagnostics, PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// sendNotification sends a notification to the client
func (s *Server) sendNotification(method string, params interface{}) error {
	return s.sendMessage(jsonRPCMessage{
		JSONRPC: "2.0",
		Method:  method,
		Params:  mustMarshal(params),
	})
}

// sendRequest sends a request to the client. Its response is not awaited.
func (s *Server) sendRequest(method string, params interface{}) error {
	return s.sendMessage(jsonRPCMessage{
		JSONRPC: "2.0",
		ID:      s.requestID.Add(1),
		Method:  method,
		Params:  mustMarshal(params),
	})
}

// sendResponse sends a JSON-RPC response
func (s *Server) sendResponse(id interface{}, result interface{}, err interface{}) error {
	return s.sendMessage(jsonRPCMessage{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
		Error:   err,
	})
}

// sendMessage sends a JSON-RPC message with Content-Length header
func (s *Server) sendMessage(msg jsonRPCMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}

// uriToPath converts a file:// URI to a filesystem path. Anything else is
// returned unchanged.
func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	path := u.Path
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// mustMarshal marshals v to JSON, panicking on error
func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal: %v", err))
	}
	return data
}
