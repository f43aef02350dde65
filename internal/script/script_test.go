package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/textmirror/internal/docstore"
)

func newTestHost(t *testing.T) (*Host, *docstore.Store) {
	t.Helper()
	store := docstore.New()
	h := New(store)
	t.Cleanup(h.Close)
	return h, store
}

func openDoc(t *testing.T, store *docstore.Store, uri, language, text string) {
	t.Helper()
	if err := store.Open(uri, language, text, 1); err != nil {
		t.Fatalf("Open(%s) error = %v", uri, err)
	}
}

func loadString(t *testing.T, h *Host, name, src string) {
	t.Helper()
	if err := h.LoadString(name, src); err != nil {
		t.Fatalf("LoadString(%s) error = %v", name, err)
	}
}

func globalString(t *testing.T, h *Host, name string) string {
	t.Helper()
	v := h.L.GetGlobal(name)
	s, ok := v.(lua.LString)
	if !ok {
		t.Fatalf("global %s = %v (%T), want string", name, v, v)
	}
	return string(s)
}

func globalNumber(t *testing.T, h *Host, name string) float64 {
	t.Helper()
	v := h.L.GetGlobal(name)
	n, ok := v.(lua.LNumber)
	if !ok {
		t.Fatalf("global %s = %v (%T), want number", name, v, v)
	}
	return float64(n)
}

func globalBool(t *testing.T, h *Host, name string) bool {
	t.Helper()
	v := h.L.GetGlobal(name)
	b, ok := v.(lua.LBool)
	if !ok {
		t.Fatalf("global %s = %v (%T), want bool", name, v, v)
	}
	return bool(b)
}

func TestLoadString(t *testing.T) {
	h, _ := newTestHost(t)

	loadString(t, h, "test", `x = 1 + 1`)

	if got := globalNumber(t, h, "x"); got != 2 {
		t.Errorf("x = %v, want 2", got)
	}
}

func TestLoadStringSyntaxError(t *testing.T) {
	h, _ := newTestHost(t)

	err := h.LoadString("bad", `not lua at all !!!`)
	if err == nil {
		t.Fatal("LoadString() with invalid code should return error")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Errorf("error %q does not name the chunk", err)
	}
}

func TestLoadFile(t *testing.T) {
	h, store := newTestHost(t)
	openDoc(t, store, "file:///a.txt", "plaintext", "hello\n")

	path := filepath.Join(t.TempDir(), "hooks.lua")
	src := `textmirror.on("open", function(doc) from_file = doc.uri end)`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := h.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if err := h.FireOpen("file:///a.txt"); err != nil {
		t.Fatalf("FireOpen() error = %v", err)
	}

	if got := globalString(t, h, "from_file"); got != "file:///a.txt" {
		t.Errorf("from_file = %q, want %q", got, "file:///a.txt")
	}
}

func TestLoadFileMissing(t *testing.T) {
	h, _ := newTestHost(t)

	err := h.LoadFile(filepath.Join(t.TempDir(), "nope.lua"))
	if err == nil {
		t.Fatal("LoadFile() with missing file should return error")
	}
}

func TestOnRegistersHooks(t *testing.T) {
	h, _ := newTestHost(t)

	loadString(t, h, "reg", `
		textmirror.on("open", function(doc) end)
		textmirror.on("open", function(doc) end)
		textmirror.on("save", function(doc) end)
	`)

	if got := h.HookCount(EventOpen); got != 2 {
		t.Errorf("HookCount(open) = %d, want 2", got)
	}
	if got := h.HookCount(EventSave); got != 1 {
		t.Errorf("HookCount(save) = %d, want 1", got)
	}
	if got := h.HookCount(EventChange); got != 0 {
		t.Errorf("HookCount(change) = %d, want 0", got)
	}
}

func TestOnRejectsUnknownEvent(t *testing.T) {
	h, _ := newTestHost(t)

	err := h.LoadString("reg", `textmirror.on("resize", function(doc) end)`)
	if err == nil {
		t.Fatal("on() with unknown event should return error")
	}
	if !strings.Contains(err.Error(), "unknown event") {
		t.Errorf("error %q does not mention the event", err)
	}
}

func TestOnRejectsNonFunction(t *testing.T) {
	h, _ := newTestHost(t)

	if err := h.LoadString("reg", `textmirror.on("open", 42)`); err == nil {
		t.Fatal("on() with non-function handler should return error")
	}
}

func TestFireOpenPassesDocument(t *testing.T) {
	h, store := newTestHost(t)
	openDoc(t, store, "file:///a.go", "go", "package a\nvar X = 1\n")

	loadString(t, h, "fields", `
		textmirror.on("open", function(doc)
			seen_uri = doc.uri
			seen_language = doc.language
			seen_version = doc.version
			seen_lines = doc.line_count
			seen_dirty = doc.dirty
		end)
	`)

	if err := h.FireOpen("file:///a.go"); err != nil {
		t.Fatalf("FireOpen() error = %v", err)
	}

	if got := globalString(t, h, "seen_uri"); got != "file:///a.go" {
		t.Errorf("uri = %q, want %q", got, "file:///a.go")
	}
	if got := globalString(t, h, "seen_language"); got != "go" {
		t.Errorf("language = %q, want %q", got, "go")
	}
	if got := globalNumber(t, h, "seen_version"); got != 1 {
		t.Errorf("version = %v, want 1", got)
	}
	if got := globalNumber(t, h, "seen_lines"); got != 3 {
		t.Errorf("line_count = %v, want 3", got)
	}
	if got := globalBool(t, h, "seen_dirty"); got {
		t.Error("dirty = true, want false")
	}
}

func TestFireChangeSeesLiveState(t *testing.T) {
	h, store := newTestHost(t)
	openDoc(t, store, "file:///a.txt", "plaintext", "before")

	loadString(t, h, "live", `
		textmirror.on("change", function(doc)
			seen_version = doc.version
			seen_dirty = doc.dirty
			seen_text = doc.text()
		end)
	`)

	if err := store.ApplyFullText(context.Background(), "file:///a.txt", "after", 2); err != nil {
		t.Fatalf("ApplyFullText() error = %v", err)
	}
	if err := h.FireChange("file:///a.txt"); err != nil {
		t.Fatalf("FireChange() error = %v", err)
	}

	if got := globalNumber(t, h, "seen_version"); got != 2 {
		t.Errorf("version = %v, want 2", got)
	}
	if !globalBool(t, h, "seen_dirty") {
		t.Error("dirty = false, want true")
	}
	if got := globalString(t, h, "seen_text"); got != "after" {
		t.Errorf("text = %q, want %q", got, "after")
	}
}

func TestFireRunsHooksInOrder(t *testing.T) {
	h, store := newTestHost(t)
	openDoc(t, store, "file:///a.txt", "plaintext", "x")

	loadString(t, h, "order", `
		order = ""
		textmirror.on("save", function(doc) order = order .. "a" end)
		textmirror.on("save", function(doc) order = order .. "b" end)
		textmirror.on("save", function(doc) order = order .. "c" end)
	`)

	if err := h.FireSave("file:///a.txt"); err != nil {
		t.Fatalf("FireSave() error = %v", err)
	}

	if got := globalString(t, h, "order"); got != "abc" {
		t.Errorf("order = %q, want %q", got, "abc")
	}
}

func TestFireCollectsHookErrors(t *testing.T) {
	h, store := newTestHost(t)
	openDoc(t, store, "file:///a.txt", "plaintext", "x")

	loadString(t, h, "errs", `
		ran = false
		textmirror.on("change", function(doc) error("first boom") end)
		textmirror.on("change", function(doc) ran = true end)
		textmirror.on("change", function(doc) error("second boom") end)
	`)

	err := h.FireChange("file:///a.txt")
	if err == nil {
		t.Fatal("FireChange() should collect hook errors")
	}
	if !strings.Contains(err.Error(), "first boom") || !strings.Contains(err.Error(), "second boom") {
		t.Errorf("error %q missing a hook failure", err)
	}
	if !globalBool(t, h, "ran") {
		t.Error("later hook did not run after earlier hook failed")
	}

	// The host stays usable after hook failures.
	if err := h.LoadString("after", `y = 7`); err != nil {
		t.Fatalf("LoadString() after hook error = %v", err)
	}
}

func TestFireNoHooks(t *testing.T) {
	h, _ := newTestHost(t)

	// No hooks registered: nothing runs, even for unopened documents.
	if err := h.FireSave("file:///missing.txt"); err != nil {
		t.Errorf("FireSave() with no hooks error = %v", err)
	}
}

func TestFireUnopenedDocument(t *testing.T) {
	h, _ := newTestHost(t)

	loadString(t, h, "reg", `textmirror.on("open", function(doc) end)`)

	err := h.FireOpen("file:///missing.txt")
	if !errors.Is(err, docstore.ErrNotOpen) {
		t.Errorf("FireOpen() error = %v, want ErrNotOpen", err)
	}
}

func TestViewOutlivesDocument(t *testing.T) {
	h, store := newTestHost(t)
	openDoc(t, store, "file:///a.txt", "plaintext", "old")
	openDoc(t, store, "file:///b.txt", "plaintext", "new")

	loadString(t, h, "stale", `
		textmirror.on("open", function(doc) stale = doc end)
		textmirror.on("change", function(doc)
			stale_ok = pcall(stale.text)
		end)
	`)

	if err := h.FireOpen("file:///a.txt"); err != nil {
		t.Fatalf("FireOpen() error = %v", err)
	}
	if err := store.Close(context.Background(), "file:///a.txt"); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// The stashed view reads through the store, so it fails cleanly once
	// its document is gone.
	if err := h.FireChange("file:///b.txt"); err != nil {
		t.Fatalf("FireChange() error = %v", err)
	}
	if globalBool(t, h, "stale_ok") {
		t.Error("stale view call succeeded, want error")
	}
}

func TestPrintRedirect(t *testing.T) {
	var lines []string
	store := docstore.New()
	h := New(store, WithOutput(func(line string) { lines = append(lines, line) }))
	t.Cleanup(h.Close)

	if err := h.LoadString("p", `print("hello", 42, true)`); err != nil {
		t.Fatalf("LoadString() error = %v", err)
	}

	if len(lines) != 1 {
		t.Fatalf("print produced %d lines, want 1", len(lines))
	}
	if lines[0] != "hello\t42\ttrue" {
		t.Errorf("print line = %q, want %q", lines[0], "hello\t42\ttrue")
	}
}

func TestSandboxRemovesEscapes(t *testing.T) {
	h, _ := newTestHost(t)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "os", "io", "debug"} {
		if v := h.L.GetGlobal(name); v != lua.LNil {
			t.Errorf("global %s = %v, want nil", name, v)
		}
	}
}

func TestSandboxRequireWhitelist(t *testing.T) {
	h, _ := newTestHost(t)

	loadString(t, h, "ok", `rep = require("string").rep("ab", 2)`)
	if got := globalString(t, h, "rep"); got != "abab" {
		t.Errorf("string.rep via require = %q, want %q", got, "abab")
	}

	err := h.LoadString("blocked", `require("io")`)
	if err == nil {
		t.Fatal("require(io) should fail")
	}
	if !strings.Contains(err.Error(), "not available") {
		t.Errorf("error %q does not mention availability", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	store := docstore.New()
	h := New(store)

	h.Close()
	h.Close()

	if err := h.LoadString("x", `a = 1`); !errors.Is(err, ErrHostClosed) {
		t.Errorf("LoadString() after Close error = %v, want ErrHostClosed", err)
	}
	if err := h.FireOpen("file:///a.txt"); !errors.Is(err, ErrHostClosed) {
		t.Errorf("FireOpen() after Close error = %v, want ErrHostClosed", err)
	}
}
