// Package server exposes the document mirror over the Language Server
// Protocol. Sync notifications keep the store in step with the client;
// the read-side requests answer from the mirrored state without touching
// the client again.
package server

import (
	"context"
	"encoding/json"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/dshills/textmirror/internal/config"
	"github.com/dshills/textmirror/internal/docstore"
	"github.com/dshills/textmirror/internal/script"
	"github.com/dshills/textmirror/internal/words"
)

const serverName = "textmirror"

var log = commonlog.GetLogger(serverName + ".server")

// Server binds the protocol handler to the document store.
type Server struct {
	handler     *protocol.Handler
	docs        *docstore.Store
	patterns    *words.Registry
	hooks       *script.Host
	includeText bool
}

// New builds a server over docs. patterns receives word patterns sent
// through initialization options and must be the registry the store
// resolves languages against. hooks may be nil.
func New(cfg *config.Config, docs *docstore.Store, patterns *words.Registry, hooks *script.Host) *Server {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	s := &Server{
		docs:        docs,
		patterns:    patterns,
		hooks:       hooks,
		includeText: cfg.Save.IncludeText,
	}
	s.handler = &protocol.Handler{
		Initialize:                    s.initialize,
		Initialized:                   s.initialized,
		Shutdown:                      s.shutdown,
		SetTrace:                      s.setTrace,
		TextDocumentDidOpen:           s.didOpen,
		TextDocumentDidChange:         s.didChange,
		TextDocumentDidSave:           s.didSave,
		TextDocumentDidClose:          s.didClose,
		TextDocumentHover:             s.hover,
		TextDocumentDocumentHighlight: s.documentHighlight,
		TextDocumentSelectionRange:    s.selectionRange,
		WorkspaceExecuteCommand:       s.executeCommand,
	}
	return s
}

// RunStdio serves the protocol on stdin and stdout until the client
// disconnects.
func (s *Server) RunStdio() error {
	return glspserver.NewServer(s.handler, serverName, false).RunStdio()
}

// initOptions is the settings overlay a client may send as
// initializationOptions.
type initOptions struct {
	Words map[string]string `json:"words"`
	Save  struct {
		IncludeText *bool `json:"include_text"`
	} `json:"save"`
}

func (s *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if params.InitializationOptions != nil {
		raw, err := json.Marshal(params.InitializationOptions)
		if err != nil {
			return nil, err
		}
		var opts initOptions
		if err := json.Unmarshal(raw, &opts); err != nil {
			return nil, err
		}
		s.applyOptions(opts)
	}

	syncKind := protocol.TextDocumentSyncKindIncremental
	includeText := s.includeText

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: &includeText},
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{CommandSave},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
	}, nil
}

// applyOptions overlays client settings. A word pattern that fails to
// compile is logged and skipped; the language keeps its previous
// definition.
func (s *Server) applyOptions(opts initOptions) {
	for lang, pattern := range opts.Words {
		if err := s.patterns.Register(lang, pattern); err != nil {
			log.Errorf("initialization option words.%s: %s", lang, err)
		}
	}
	if opts.Save.IncludeText != nil {
		s.includeText = *opts.Save.IncludeText
	}
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	log.Info("client initialized")
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	s.docs.CloseAll(context.Background())
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	log.Infof("trace value set to %s", params.Value)
	return nil
}
