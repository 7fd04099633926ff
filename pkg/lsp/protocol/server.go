package protocol

import (
	"context"

	"github.com/creachadair/jrpc2/handler"
)

// Server is the set of client-to-server methods the CHTL language server
// answers.
type Server interface {
	Initialize(ctx context.Context, params *InitializeParams) (*InitializeResult, error)
	Initialized(ctx context.Context, params *InitializedParams) error
	Shutdown(ctx context.Context) error
	Exit(ctx context.Context) error

	DidOpen(ctx context.Context, params *DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *DidChangeTextDocumentParams) error
	DidSave(ctx context.Context, params *DidSaveTextDocumentParams) error
	DidClose(ctx context.Context, params *DidCloseTextDocumentParams) error

	Completion(ctx context.Context, params *CompletionParams) (*CompletionList, error)
	Hover(ctx context.Context, params *HoverParams) (*Hover, error)
	Definition(ctx context.Context, params *DefinitionParams) ([]Location, error)
	Formatting(ctx context.Context, params *DocumentFormattingParams) ([]TextEdit, error)
	SemanticTokensFull(ctx context.Context, params *SemanticTokensParams) (*SemanticTokens, error)
	Diagnostic(ctx context.Context, params *DocumentDiagnosticParams) (*FullDocumentDiagnosticReport, error)

	DidChangeConfiguration(ctx context.Context, params *DidChangeConfigurationParams) error
	ExecuteCommand(ctx context.Context, params *ExecuteCommandParams) (any, error)
}

const (
	MethodInitialize             = "initialize"
	MethodInitialized            = "initialized"
	MethodShutdown               = "shutdown"
	MethodExit                   = "exit"
	MethodDidOpen                = "textDocument/didOpen"
	MethodDidChange              = "textDocument/didChange"
	MethodDidSave                = "textDocument/didSave"
	MethodDidClose               = "textDocument/didClose"
	MethodCompletion             = "textDocument/completion"
	MethodHover                  = "textDocument/hover"
	MethodDefinition             = "textDocument/definition"
	MethodFormatting             = "textDocument/formatting"
	MethodSemanticTokensFull     = "textDocument/semanticTokens/full"
	MethodDiagnostic             = "textDocument/diagnostic"
	MethodDidChangeConfiguration = "workspace/didChangeConfiguration"
	MethodExecuteCommand         = "workspace/executeCommand"
	MethodCancelRequest          = "$/cancelRequest"
	MethodSetTrace               = "$/setTrace"

	MethodPublishDiagnostics = "textDocument/publishDiagnostics"
	MethodShowMessage        = "window/showMessage"
	MethodLogMessage         = "window/logMessage"
)

func buildServerDispatchMap(server Server) handler.Map {
	return handler.Map{
		MethodInitialize:  createHandler(server.Initialize),
		MethodInitialized: createEmptyResultHandler(server.Initialized),
		MethodShutdown:    createEmptyHandler(server.Shutdown),
		MethodExit:        createEmptyHandler(server.Exit),

		MethodDidOpen:   createEmptyResultHandler(server.DidOpen),
		MethodDidChange: createEmptyResultHandler(server.DidChange),
		MethodDidSave:   createEmptyResultHandler(server.DidSave),
		MethodDidClose:  createEmptyResultHandler(server.DidClose),

		MethodCompletion:         createHandler(server.Completion),
		MethodHover:              createHandler(server.Hover),
		MethodDefinition:         createHandler(server.Definition),
		MethodFormatting:         createHandler(server.Formatting),
		MethodSemanticTokensFull: createHandler(server.SemanticTokensFull),
		MethodDiagnostic:         createHandler(server.Diagnostic),

		MethodDidChangeConfiguration: createEmptyResultHandler(server.DidChangeConfiguration),
		MethodExecuteCommand:         createHandler(server.ExecuteCommand),

		// jrpc2 handles cancellation itself; these only need to not fail
		MethodCancelRequest: createEmptyResultHandler(func(context.Context, *CancelParams) error { return nil }),
		MethodSetTrace:      createEmptyResultHandler(func(context.Context, *SetTraceParams) error { return nil }),
	}
}
