package server

import (
	"context"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/textmirror/internal/document"
	"github.com/dshills/textmirror/internal/script"
	"github.com/dshills/textmirror/internal/textstore"
)

func (s *Server) didOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	td := params.TextDocument
	if err := s.docs.Open(td.URI, td.LanguageID, td.Text, int32(td.Version)); err != nil {
		return err
	}
	s.fireHook(script.EventOpen, td.URI)
	return nil
}

// didChange applies the client's edits. Ranged events convert against the
// document state left by the previous event, so each one lands where the
// client computed it.
func (s *Server) didChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	version := int32(params.TextDocument.Version)

	for _, raw := range params.ContentChanges {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				if err := s.docs.ApplyFullText(context.Background(), uri, change.Text, version); err != nil {
					return err
				}
				continue
			}
			if err := s.applyRanged(uri, *change.Range, change.Text, version); err != nil {
				return err
			}
		case protocol.TextDocumentContentChangeEventWhole:
			if err := s.docs.ApplyFullText(context.Background(), uri, change.Text, version); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected change event type %T", raw)
		}
	}

	s.fireHook(script.EventChange, uri)
	return nil
}

func (s *Server) applyRanged(uri string, r protocol.Range, text string, version int32) error {
	var edit textstore.Edit
	err := s.docs.Read(uri, func(d *document.Document) error {
		edit = editFromChange(d, r, text)
		return nil
	})
	if err != nil {
		return err
	}
	return s.docs.ApplyChanges(context.Background(), uri, []textstore.Edit{edit}, version)
}

func (s *Server) didSave(_ *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI
	if s.includeText && params.Text != nil {
		if err := s.reconcile(uri, *params.Text); err != nil {
			return err
		}
	}
	if err := s.docs.MarkSaved(context.Background(), uri); err != nil {
		return err
	}
	s.fireHook(script.EventSave, uri)
	return nil
}

// reconcile replaces the mirror content when the text sent with a save
// does not match it. The version stays put; only the client advances
// versions.
func (s *Server) reconcile(uri, text string) error {
	current, version, _, err := s.docs.Snapshot(uri)
	if err != nil {
		return err
	}
	if current == text {
		return nil
	}
	log.Warningf("document %s drifted from the client at save; resynchronizing", uri)
	return s.docs.ApplyFullText(context.Background(), uri, text, version)
}

// didClose fires the close hook while the document is still readable,
// then drops it from the store.
func (s *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.fireHook(script.EventClose, uri)
	return s.docs.Close(context.Background(), uri)
}

// fireHook reports ev to the script host. Hook errors are logged, never
// returned.
func (s *Server) fireHook(ev script.Event, uri string) {
	if s.hooks == nil {
		return
	}
	if err := s.hooks.Fire(ev, uri); err != nil {
		log.Errorf("%s hooks: %s", ev, err)
	}
}
