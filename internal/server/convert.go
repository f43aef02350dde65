package server

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/textmirror/internal/document"
	"github.com/dshills/textmirror/internal/textstore"
)

// Protocol columns count UTF-16 code units; the document model counts
// runes. Conversion works per line against the current line text. Columns
// past the end of a line clamp to it, as document validation does; lines
// past the end of the document are the store's to reject.

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// utf16ToRuneColumn converts a UTF-16 column in s to a rune column. A
// column splitting a surrogate pair resolves past the pair.
func utf16ToRuneColumn(s string, col int) int {
	if col <= 0 {
		return 0
	}
	units, runes := 0, 0
	for _, r := range s {
		if units >= col {
			break
		}
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
		runes++
	}
	return runes
}

// runeToUTF16Column converts a rune column in s to a UTF-16 column.
func runeToUTF16Column(s string, col int) int {
	if col <= 0 {
		return 0
	}
	units, runes := 0, 0
	for _, r := range s {
		if runes >= col {
			break
		}
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
		runes++
	}
	return units
}

// byteToUTF16Column converts a rune-aligned byte offset in s to a UTF-16
// column.
func byteToUTF16Column(s string, off int) int {
	if off <= 0 {
		return 0
	}
	if off > len(s) {
		off = len(s)
	}
	return utf16Len(s[:off])
}

// positionFromLSP converts a protocol position to a document position. The
// line is clamped into the document so the column has text to convert
// against; the document validates further.
func positionFromLSP(d *document.Document, p protocol.Position) document.Position {
	line := int(p.Line)
	if last := d.LineCount() - 1; line > last {
		line = last
	}
	return document.Position{
		Line:      line,
		Character: utf16ToRuneColumn(lineText(d, line), int(p.Character)),
	}
}

// positionToLSP converts an already validated document position to a
// protocol position.
func positionToLSP(d *document.Document, p document.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line),
		Character: protocol.UInteger(runeToUTF16Column(lineText(d, p.Line), p.Character)),
	}
}

// rangeToLSP converts an already validated document range to a protocol
// range.
func rangeToLSP(d *document.Document, r document.Range) protocol.Range {
	return protocol.Range{
		Start: positionToLSP(d, r.Start),
		End:   positionToLSP(d, r.End),
	}
}

// editFromChange converts a ranged change event into a store edit against
// the current document state. Out-of-range lines pass through so the store
// rejects the span instead of a clamp rewriting the wrong text.
func editFromChange(d *document.Document, r protocol.Range, text string) textstore.Edit {
	return textstore.Edit{
		Span: textstore.Span{
			StartLine: int(r.Start.Line),
			StartChar: utf16ToRuneColumn(lineText(d, int(r.Start.Line)), int(r.Start.Character)),
			EndLine:   int(r.End.Line),
			EndChar:   utf16ToRuneColumn(lineText(d, int(r.End.Line)), int(r.End.Character)),
		},
		Text: text,
	}
}

// lineText returns the text of a line, or "" when the line is outside the
// document.
func lineText(d *document.Document, line int) string {
	ln, err := d.LineAt(line)
	if err != nil {
		return ""
	}
	return ln.Text
}
