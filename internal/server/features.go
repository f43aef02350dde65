package server

import (
	"fmt"
	"unicode/utf8"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/textmirror/internal/document"
)

// hover describes the word under the cursor: its text, range, rune
// offset, and the line carrying it.
func (s *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	var hov *protocol.Hover
	err := s.docs.Read(params.TextDocument.URI, func(d *document.Document) error {
		pos := positionFromLSP(d, params.Position)
		r, ok, err := d.WordRangeAt(pos, nil)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		ln, err := d.LineAt(r.Start.Line)
		if err != nil {
			return err
		}
		value := fmt.Sprintf("word %q\nrange %s, offset %d\nline %d: %d characters",
			d.TextInRange(r), r, d.OffsetAt(r.Start), ln.Number, utf8.RuneCountInString(ln.Text))
		wordRange := rangeToLSP(d, r)
		hov = &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindPlainText,
				Value: value,
			},
			Range: &wordRange,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hov, nil
}

// documentHighlight marks every occurrence of the word under the cursor.
// Matches come from the document's effective word pattern and count only
// when the matched text equals the word, so "count" does not light up
// inside "counter".
func (s *Server) documentHighlight(_ *glsp.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	var highlights []protocol.DocumentHighlight
	err := s.docs.Read(params.TextDocument.URI, func(d *document.Document) error {
		pos := positionFromLSP(d, params.Position)
		r, ok, err := d.WordRangeAt(pos, nil)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		word := d.TextInRange(r)
		re := d.WordPattern()
		kind := protocol.DocumentHighlightKindText

		for line := 0; line < d.LineCount(); line++ {
			ln, err := d.LineAt(line)
			if err != nil {
				return err
			}
			for _, m := range re.FindAllStringIndex(ln.Text, -1) {
				if ln.Text[m[0]:m[1]] != word {
					continue
				}
				highlights = append(highlights, protocol.DocumentHighlight{
					Range: protocol.Range{
						Start: protocol.Position{
							Line:      protocol.UInteger(line),
							Character: protocol.UInteger(byteToUTF16Column(ln.Text, m[0])),
						},
						End: protocol.Position{
							Line:      protocol.UInteger(line),
							Character: protocol.UInteger(byteToUTF16Column(ln.Text, m[1])),
						},
					},
					Kind: &kind,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return highlights, nil
}

// selectionRange builds the expand-selection chain for each position:
// word, then line, then line with its terminator, then the whole
// document. Levels that would repeat the previous range are skipped.
func (s *Server) selectionRange(_ *glsp.Context, params *protocol.SelectionRangeParams) ([]protocol.SelectionRange, error) {
	var ranges []protocol.SelectionRange
	err := s.docs.Read(params.TextDocument.URI, func(d *document.Document) error {
		ranges = make([]protocol.SelectionRange, 0, len(params.Positions))
		for _, p := range params.Positions {
			chain, err := selectionChain(d, positionFromLSP(d, p))
			if err != nil {
				return err
			}
			ranges = append(ranges, *chain)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ranges, nil
}

func selectionChain(d *document.Document, pos document.Position) (*protocol.SelectionRange, error) {
	last, err := d.LineAt(d.LineCount() - 1)
	if err != nil {
		return nil, err
	}
	docRange := document.Range{End: last.Range.End}
	chain := &protocol.SelectionRange{Range: rangeToLSP(d, docRange)}

	ln, err := d.LineAt(pos.Line)
	if err != nil {
		return nil, err
	}
	if ln.RangeIncludingLineBreak != docRange {
		chain = &protocol.SelectionRange{
			Range:  rangeToLSP(d, ln.RangeIncludingLineBreak),
			Parent: chain,
		}
	}
	if ln.Range != ln.RangeIncludingLineBreak {
		chain = &protocol.SelectionRange{
			Range:  rangeToLSP(d, ln.Range),
			Parent: chain,
		}
	}
	word, ok, err := d.WordRangeAt(pos, nil)
	if err != nil {
		return nil, err
	}
	if ok && word != ln.Range {
		chain = &protocol.SelectionRange{
			Range:  rangeToLSP(d, word),
			Parent: chain,
		}
	}
	return chain, nil
}
