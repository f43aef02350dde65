package server

import (
	"context"
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/textmirror/internal/docstore"
	"github.com/dshills/textmirror/internal/script"
	"github.com/dshills/textmirror/internal/words"
)

func newTestServer(t *testing.T, opts ...docstore.Option) (*Server, *docstore.Store, *words.Registry) {
	t.Helper()
	reg := words.NewRegistry()
	docs := docstore.New(append([]docstore.Option{docstore.WithWordPatterns(reg)}, opts...)...)
	return New(nil, docs, reg, nil), docs, reg
}

func openDoc(t *testing.T, s *Server, uri, lang, text string) {
	t.Helper()
	err := s.didOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: lang, Version: 1, Text: text},
	})
	if err != nil {
		t.Fatalf("didOpen: %v", err)
	}
}

type saverFunc func(ctx context.Context, uri, text string) error

func (f saverFunc) Save(ctx context.Context, uri, text string) error {
	return f(ctx, uri, text)
}

func TestInitializeCapabilities(t *testing.T) {
	s, _, _ := newTestServer(t)

	result, err := s.initialize(nil, &protocol.InitializeParams{})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	res, ok := result.(protocol.InitializeResult)
	if !ok {
		t.Fatalf("result is %T", result)
	}

	sync, ok := res.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	if !ok {
		t.Fatalf("TextDocumentSync is %T", res.Capabilities.TextDocumentSync)
	}
	if sync.OpenClose == nil || !*sync.OpenClose {
		t.Error("open/close notifications should be requested")
	}
	if sync.Change == nil || *sync.Change != protocol.TextDocumentSyncKindIncremental {
		t.Error("sync kind should be incremental")
	}
	save, ok := sync.Save.(*protocol.SaveOptions)
	if !ok {
		t.Fatalf("Save is %T", sync.Save)
	}
	if save.IncludeText == nil || !*save.IncludeText {
		t.Error("save should request text by default")
	}

	ec := res.Capabilities.ExecuteCommandProvider
	if ec == nil || len(ec.Commands) != 1 || ec.Commands[0] != CommandSave {
		t.Errorf("ExecuteCommandProvider = %+v", ec)
	}
}

func TestInitializeOptionsOverlay(t *testing.T) {
	s, _, reg := newTestServer(t)

	result, err := s.initialize(nil, &protocol.InitializeParams{
		InitializationOptions: map[string]any{
			"words": map[string]any{"kebab": "[a-z-]+"},
			"save":  map[string]any{"include_text": false},
		},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, ok := reg.Lookup("kebab"); !ok {
		t.Error("word pattern from options should be registered")
	}
	if s.includeText {
		t.Error("include_text option should disable save text")
	}

	res := result.(protocol.InitializeResult)
	sync := res.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	save := sync.Save.(*protocol.SaveOptions)
	if save.IncludeText == nil || *save.IncludeText {
		t.Error("capabilities should reflect the disabled save text")
	}
}

func TestInitializeBadWordPattern(t *testing.T) {
	s, _, reg := newTestServer(t)

	// A pattern failing the safety checks is skipped, not fatal.
	_, err := s.initialize(nil, &protocol.InitializeParams{
		InitializationOptions: map[string]any{
			"words": map[string]any{"risky": "(a+)+"},
		},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, ok := reg.Lookup("risky"); ok {
		t.Error("unsafe pattern should not be registered")
	}
}

func TestExecuteCommandSave(t *testing.T) {
	var savedURI, savedText string
	saver := saverFunc(func(_ context.Context, uri, text string) error {
		savedURI, savedText = uri, text
		return nil
	})
	s, _, _ := newTestServer(t, docstore.WithSaver(saver))
	openDoc(t, s, "file:///a.txt", "", "hello")

	_, err := s.executeCommand(nil, &protocol.ExecuteCommandParams{
		Command:   CommandSave,
		Arguments: []any{"file:///a.txt"},
	})
	if err != nil {
		t.Fatalf("executeCommand: %v", err)
	}
	if savedURI != "file:///a.txt" || savedText != "hello" {
		t.Errorf("saved %q %q", savedURI, savedText)
	}
}

func TestExecuteCommandUnknown(t *testing.T) {
	s, _, _ := newTestServer(t)

	_, err := s.executeCommand(nil, &protocol.ExecuteCommandParams{Command: "textmirror.fly"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("err = %v, want unknown command", err)
	}
}

func TestExecuteCommandSaveMissingArgument(t *testing.T) {
	s, _, _ := newTestServer(t)

	_, err := s.executeCommand(nil, &protocol.ExecuteCommandParams{Command: CommandSave})
	if err == nil || !strings.Contains(err.Error(), "missing argument") {
		t.Errorf("err = %v, want missing argument", err)
	}

	_, err = s.executeCommand(nil, &protocol.ExecuteCommandParams{
		Command:   CommandSave,
		Arguments: []any{42},
	})
	if err == nil || !strings.Contains(err.Error(), "expected string") {
		t.Errorf("err = %v, want type error", err)
	}
}

func TestHandlersFireHooks(t *testing.T) {
	reg := words.NewRegistry()
	docs := docstore.New(docstore.WithWordPatterns(reg))

	var lines []string
	host := script.New(docs, script.WithOutput(func(line string) {
		lines = append(lines, line)
	}))
	t.Cleanup(host.Close)

	err := host.LoadString("hooks", `
		textmirror.on("open", function(doc) print("open", doc.uri) end)
		textmirror.on("change", function(doc) print("change", doc.version) end)
		textmirror.on("save", function(doc) print("save", doc.dirty) end)
		textmirror.on("close", function(doc) print("close", doc.line_count) end)
	`)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	s := New(nil, docs, reg, host)
	openDoc(t, s, "file:///a.txt", "", "one\ntwo")

	err = s.didChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///a.txt"},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "one\ntwo\nthree"},
		},
	})
	if err != nil {
		t.Fatalf("didChange: %v", err)
	}
	if err := s.didSave(nil, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///a.txt"},
	}); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	if err := s.didClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///a.txt"},
	}); err != nil {
		t.Fatalf("didClose: %v", err)
	}

	want := []string{
		"open\tfile:///a.txt",
		"change\t2",
		"save\tfalse",
		"close\t3",
	}
	if len(lines) != len(want) {
		t.Fatalf("hook output = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("hook output[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}
