package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/chris-regnier/mallet/internal/cache"
)

// CommandResult represents the result of executing a command
type CommandResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

const workspaceProgressToken = "mallet-workspace-lint"

// CommandHandler handles workspace/executeCommand requests
type CommandHandler struct {
	server *Server
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(server *Server) *CommandHandler {
	return &CommandHandler{server: server}
}

// Execute handles a command execution request
func (h *CommandHandler) Execute(ctx context.Context, params ExecuteCommandParams) (interface{}, error) {
	switch params.Command {
	case CommandLintFile:
		return h.lintFile(ctx, params.Arguments)
	case CommandLintWorkspace:
		return h.lintWorkspace(ctx)
	case CommandFixFile:
		return h.fixFile(ctx, params.Arguments)
	case CommandClearCache:
		return h.clearCache(ctx)
	default:
		return nil, fmt.Errorf("unknown command: %s", params.Command)
	}
}

// openDocument resolves the URI argument of a command to an open document
func (h *CommandHandler) openDocument(args []interface{}) (string, string, *CommandResult) {
	if len(args) < 1 {
		return "", "", &CommandResult{Message: "file URI argument required"}
	}
	uri, ok := args[0].(string)
	if !ok {
		return "", "", &CommandResult{Message: "file URI must be a string"}
	}
	content, ok := h.server.document(uri)
	if !ok {
		return "", "", &CommandResult{Message: fmt.Sprintf("document not open: %s", uri)}
	}
	return uri, content, nil
}

// lintFile lints one open document immediately, skipping the debounce
func (h *CommandHandler) lintFile(ctx context.Context, args []interface{}) (*CommandResult, error) {
	uri, content, failed := h.openDocument(args)
	if failed != nil {
		return failed, nil
	}
	h.server.lintAndPublish(ctx, uri, content)
	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("Linted %s", uri),
	}, nil
}

// lintWorkspace lints every open document, reporting progress
func (h *CommandHandler) lintWorkspace(ctx context.Context) (*CommandResult, error) {
	docs := h.server.openDocuments()
	if len(docs) == 0 {
		return &CommandResult{Success: true, Message: "No documents open to lint"}, nil
	}

	progress := h.server.progress
	if err := progress.Begin(workspaceProgressToken, "Linting workspace", len(docs)); err != nil {
		slog.Debug("progress begin failed", "err", err)
	}

	linted := 0
	for _, uri := range slices.Sorted(maps.Keys(docs)) {
		if ctx.Err() != nil {
			break
		}
		if !h.server.shouldAnalyze(uri) {
			continue
		}
		h.server.lintAndPublish(ctx, uri, docs[uri])
		linted++
		_ = progress.Report(workspaceProgressToken, fmt.Sprintf("Linted %d/%d files", linted, len(docs)), linted, len(docs))
	}

	_ = progress.End(workspaceProgressToken, fmt.Sprintf("Linted %d files", linted))
	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("Linted %d files", linted),
		Data:    map[string]int{"filesLinted": linted},
	}, nil
}

// fixFile asks the client to replace an open document with its corrected
// text.
func (h *CommandHandler) fixFile(ctx context.Context, args []interface{}) (*CommandResult, error) {
	uri, content, failed := h.openDocument(args)
	if failed != nil {
		return failed, nil
	}
	if h.server.fix == nil {
		return &CommandResult{Message: "corrections not available"}, nil
	}

	fixed, changed, err := h.server.fix(ctx, uriToPath(uri), content)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &CommandResult{Success: true, Message: "Nothing to correct"}, nil
	}

	edit := ApplyWorkspaceEditParams{
		Label: "mallet: Fix all correctable violations",
		Edit: WorkspaceEdit{Changes: map[string][]TextEdit{
			uri: {{Range: fullRange(content), NewText: fixed}},
		}},
	}
	if err := h.server.sendRequest(MethodWorkspaceApplyEdit, edit); err != nil {
		return nil, err
	}
	return &CommandResult{Success: true, Message: fmt.Sprintf("Corrected %s", uri)}, nil
}

// clearCache drops the stored document results and empties the lint cache
func (h *CommandHandler) clearCache(ctx context.Context) (*CommandResult, error) {
	h.server.resultsMu.Lock()
	clear(h.server.resultsCache)
	h.server.resultsMu.Unlock()

	c, ok := h.server.cacheManager.(cache.Clearer)
	if !ok {
		return &CommandResult{Success: true, Message: "Results cleared"}, nil
	}
	removed, err := c.Clear(ctx)
	if err != nil {
		return nil, fmt.Errorf("clearing cache: %w", err)
	}
	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("Cache cleared (%d entries)", removed),
		Data:    map[string]int{"entriesRemoved": removed},
	}, nil
}
