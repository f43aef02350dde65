// Package script hosts Lua hooks that observe document lifecycle events.
//
// A Host owns a single sandboxed Lua state. Scripts loaded into it register
// handlers with textmirror.on("open"|"change"|"save"|"close", fn); the
// server fires the matching event after each document operation and every
// registered handler receives a read-only view of the document. Handler
// errors are collected and reported to the caller, never raised.
//
// gopher-lua states are not goroutine-safe, so every entry point serializes
// through the host mutex. Scripts must not write to stdout: the process
// speaks its wire protocol there, which is why print is redirected to the
// host's output sink.
package script

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/textmirror/internal/docstore"
)

// ErrHostClosed is returned when operating on a closed host.
var ErrHostClosed = errors.New("script host is closed")

// Event identifies a document lifecycle event hooks can observe.
type Event string

// Events scripts can register for.
const (
	EventOpen   Event = "open"
	EventChange Event = "change"
	EventSave   Event = "save"
	EventClose  Event = "close"
)

// Host runs hook scripts against a single sandboxed Lua state.
type Host struct {
	// mu serializes all access to L. Lua code only ever runs with it held.
	mu     sync.Mutex
	L      *lua.LState
	store  *docstore.Store
	hooks  map[Event][]*lua.LFunction
	output func(line string)
	closed bool
}

// Option configures a Host.
type Option func(*Host)

// WithOutput sets the sink for script print calls. Each call receives one
// print invocation, arguments joined by tabs. The default discards output.
func WithOutput(fn func(line string)) Option {
	return func(h *Host) { h.output = fn }
}

// New creates a hook host reading documents from store.
func New(store *docstore.Store, opts ...Option) *Host {
	h := &Host{
		store:  store,
		hooks:  make(map[Event][]*lua.LFunction),
		output: func(string) {},
	}
	for _, opt := range opts {
		opt(h)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	h.L = L

	openSafeLibraries(L)
	installSandbox(L, func(line string) { h.output(line) })

	mod := L.NewTable()
	L.SetField(mod, "on", L.NewFunction(h.luaOn))
	L.SetGlobal("textmirror", mod)

	return h
}

// LoadFile executes a Lua script file in the host state.
func (h *Host) LoadFile(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHostClosed
	}

	if err := h.protect(func() error { return h.L.DoFile(path) }); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// LoadString executes Lua source in the host state. The name labels the
// chunk in error messages.
func (h *Host) LoadString(name, src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHostClosed
	}

	err := h.protect(func() error {
		fn, err := h.L.Load(strings.NewReader(src), name)
		if err != nil {
			return err
		}
		h.L.Push(fn)
		return h.L.PCall(0, 0, nil)
	})
	if err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	return nil
}

// HookCount returns the number of handlers registered for an event.
func (h *Host) HookCount(ev Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hooks[ev])
}

// Fire notifies hooks registered for ev about the document at uri.
func (h *Host) Fire(ev Event, uri string) error { return h.fire(ev, uri) }

// FireOpen notifies hooks that a document was opened.
func (h *Host) FireOpen(uri string) error { return h.fire(EventOpen, uri) }

// FireChange notifies hooks that a document changed.
func (h *Host) FireChange(uri string) error { return h.fire(EventChange, uri) }

// FireSave notifies hooks that a document was saved.
func (h *Host) FireSave(uri string) error { return h.fire(EventSave, uri) }

// FireClose notifies hooks that a document is about to close. Fire this
// before removing the document from the store so handlers can still read it.
func (h *Host) FireClose(uri string) error { return h.fire(EventClose, uri) }

// fire calls every handler registered for ev with a view of the document.
// Handler failures do not stop later handlers; all failures are joined into
// the returned error.
func (h *Host) fire(ev Event, uri string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHostClosed
	}
	hooks := h.hooks[ev]
	if len(hooks) == 0 {
		return nil
	}

	view, err := h.docView(uri)
	if err != nil {
		return fmt.Errorf("%s event: %w", ev, err)
	}

	var errs []error
	for _, fn := range hooks {
		err := h.protect(func() error {
			h.L.Push(fn)
			h.L.Push(view)
			return h.L.PCall(1, 0, nil)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s hook: %w", ev, err))
		}
	}
	return errors.Join(errs...)
}

// luaOn implements textmirror.on(event, fn). It runs on the host goroutine
// with mu already held, as all Lua execution does.
func (h *Host) luaOn(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	ev := Event(name)
	switch ev {
	case EventOpen, EventChange, EventSave, EventClose:
	default:
		L.ArgError(1, fmt.Sprintf("unknown event %q", name))
		return 0
	}

	h.hooks[ev] = append(h.hooks[ev], fn)
	return 0
}

// protect runs fn with panic recovery. gopher-lua panics on some internal
// failures even under PCall.
func (h *Host) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("lua panic: %v", r)
			}
		}
	}()
	return fn()
}

// Close shuts down the Lua state. Safe to call more than once.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.hooks = make(map[Event][]*lua.LFunction)
	h.L.Close()
}
