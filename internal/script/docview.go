package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/textmirror/internal/document"
)

// docView builds the table handlers receive. The fields are a snapshot
// taken when the event fires; the functions read the live document on each
// call. Lines and characters are 1-indexed on the Lua side; offsets count
// runes from the start of the document. A view gives no way to modify the
// document.
func (h *Host) docView(uri string) (*lua.LTable, error) {
	var (
		language  string
		version   int32
		lineCount int
		dirty     bool
	)
	err := h.store.Read(uri, func(d *document.Document) error {
		language = d.Language()
		version = d.Version()
		lineCount = d.LineCount()
		dirty = d.IsDirty()
		return nil
	})
	if err != nil {
		return nil, err
	}

	L := h.L
	tbl := L.NewTable()
	L.SetField(tbl, "uri", lua.LString(uri))
	L.SetField(tbl, "language", lua.LString(language))
	L.SetField(tbl, "version", lua.LNumber(version))
	L.SetField(tbl, "line_count", lua.LNumber(lineCount))
	L.SetField(tbl, "dirty", lua.LBool(dirty))

	L.SetField(tbl, "text", L.NewFunction(h.viewText(uri)))
	L.SetField(tbl, "line_at", L.NewFunction(h.viewLineAt(uri)))
	L.SetField(tbl, "text_in_range", L.NewFunction(h.viewTextInRange(uri)))
	L.SetField(tbl, "offset_at", L.NewFunction(h.viewOffsetAt(uri)))
	L.SetField(tbl, "position_at", L.NewFunction(h.viewPositionAt(uri)))
	L.SetField(tbl, "word_at", L.NewFunction(h.viewWordAt(uri)))
	return tbl, nil
}

// text() -> string
// Returns the full document text.
func (h *Host) viewText(uri string) lua.LGFunction {
	return func(L *lua.LState) int {
		var text string
		err := h.store.Read(uri, func(d *document.Document) error {
			text = d.Text()
			return nil
		})
		if err != nil {
			L.RaiseError("text: %v", err)
			return 0
		}
		L.Push(lua.LString(text))
		return 1
	}
}

// line_at(line) -> string
// Returns the text of a line without its terminator (1-indexed).
func (h *Host) viewLineAt(uri string) lua.LGFunction {
	return func(L *lua.LState) int {
		lineNum := L.CheckInt(1)

		var text string
		err := h.store.Read(uri, func(d *document.Document) error {
			ln, err := d.LineAt(lineNum - 1)
			if err != nil {
				return err
			}
			text = ln.Text
			return nil
		})
		if err != nil {
			L.RaiseError("line_at: %v", err)
			return 0
		}
		L.Push(lua.LString(text))
		return 1
	}
}

// text_in_range(start_line, start_ch, end_line, end_ch) -> string
// Returns the text between two positions, both endpoints inclusive like
// string.sub. Positions outside the document clamp to it.
func (h *Host) viewTextInRange(uri string) lua.LGFunction {
	return func(L *lua.LState) int {
		sl := L.CheckInt(1)
		sc := L.CheckInt(2)
		el := L.CheckInt(3)
		ec := L.CheckInt(4)

		var text string
		err := h.store.Read(uri, func(d *document.Document) error {
			text = d.TextInRange(document.Range{
				Start: document.Position{Line: sl - 1, Character: sc - 1},
				End:   document.Position{Line: el - 1, Character: ec},
			})
			return nil
		})
		if err != nil {
			L.RaiseError("text_in_range: %v", err)
			return 0
		}
		L.Push(lua.LString(text))
		return 1
	}
}

// offset_at(line, ch) -> offset
// Converts a position to a rune offset from the document start. Positions
// outside the document clamp to it.
func (h *Host) viewOffsetAt(uri string) lua.LGFunction {
	return func(L *lua.LState) int {
		lineNum := L.CheckInt(1)
		ch := L.CheckInt(2)

		var offset int
		err := h.store.Read(uri, func(d *document.Document) error {
			offset = d.OffsetAt(document.Position{Line: lineNum - 1, Character: ch - 1})
			return nil
		})
		if err != nil {
			L.RaiseError("offset_at: %v", err)
			return 0
		}
		L.Push(lua.LNumber(offset))
		return 1
	}
}

// position_at(offset) -> line, ch
// Converts a rune offset to a position. Offsets outside the document clamp
// to it.
func (h *Host) viewPositionAt(uri string) lua.LGFunction {
	return func(L *lua.LState) int {
		offset := L.CheckInt(1)

		var p document.Position
		err := h.store.Read(uri, func(d *document.Document) error {
			p = d.PositionAt(offset)
			return nil
		})
		if err != nil {
			L.RaiseError("position_at: %v", err)
			return 0
		}
		L.Push(lua.LNumber(p.Line + 1))
		L.Push(lua.LNumber(p.Character + 1))
		return 2
	}
}

// word_at(line, ch) -> word, start_ch, end_ch
// Returns the word at the position and its inclusive column span, or nil
// when no word surrounds the position. Words follow the document's
// language pattern.
func (h *Host) viewWordAt(uri string) lua.LGFunction {
	return func(L *lua.LState) int {
		lineNum := L.CheckInt(1)
		ch := L.CheckInt(2)

		var (
			word       string
			start, end int
			found      bool
		)
		err := h.store.Read(uri, func(d *document.Document) error {
			pos := document.Position{Line: lineNum - 1, Character: ch - 1}
			r, ok, err := d.WordRangeAt(pos, nil)
			if err != nil || !ok {
				return err
			}
			found = true
			word = d.TextInRange(r)
			start = r.Start.Character + 1
			end = r.End.Character
			return nil
		})
		if err != nil {
			L.RaiseError("word_at: %v", err)
			return 0
		}
		if !found {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(word))
		L.Push(lua.LNumber(start))
		L.Push(lua.LNumber(end))
		return 3
	}
}
