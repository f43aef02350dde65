package docstore

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/textmirror/internal/textstore"
)

// applyLineDiff patches st toward text by diffing whole lines and
// applying the differing runs as span edits. Diffing in line mode keeps
// terminator pairs intact and produces edit spans on line boundaries.
func applyLineDiff(st *textstore.Store, text string, version int32) error {
	dmp := diffmatchpatch.New()
	rOld, rNew, lineArray := dmp.DiffLinesToRunes(st.Text(), text)
	diffs := dmp.DiffMainRunes(rOld, rNew, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	// pos tracks a character offset in the evolving mirror, so each span
	// is located against the content left by the previous edit.
	pos := 0
	for _, d := range diffs {
		chunk := decodeLines(d.Text, lineArray)
		n := utf8.RuneCountInString(chunk)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += n

		case diffmatchpatch.DiffDelete:
			startLine, startChar := st.Locate(pos)
			endLine, endChar := st.Locate(pos + n)
			edit := textstore.Edit{Span: textstore.Span{
				StartLine: startLine,
				StartChar: startChar,
				EndLine:   endLine,
				EndChar:   endChar,
			}}
			if err := st.ApplyEdits([]textstore.Edit{edit}, version); err != nil {
				return err
			}

		case diffmatchpatch.DiffInsert:
			line, ch := st.Locate(pos)
			edit := textstore.Edit{
				Span: textstore.Span{StartLine: line, StartChar: ch, EndLine: line, EndChar: ch},
				Text: chunk,
			}
			if err := st.ApplyEdits([]textstore.Edit{edit}, version); err != nil {
				return err
			}
			pos += n
		}
	}

	st.SetVersion(version)
	return nil
}

// decodeLines expands a rune-encoded diff run back into its line text
// using the array produced by DiffLinesToRunes.
func decodeLines(s string, lineArray []string) string {
	var b strings.Builder
	for _, r := range s {
		idx := int(r)
		if idx >= 0 && idx < len(lineArray) {
			b.WriteString(lineArray[idx])
		}
	}
	return b.String()
}
