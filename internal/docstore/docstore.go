// Package docstore manages the set of open document mirrors.
//
// Each open URI owns a textstore.Store holding the line content and a
// document.Document answering addressing queries over it. Store methods
// serialize access per document, so handlers may call them from any
// goroutine. Mutations mark documents dirty and, when a backup store is
// attached, persist a hot-exit copy after every change.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/textmirror/internal/backup"
	"github.com/dshills/textmirror/internal/document"
	"github.com/dshills/textmirror/internal/textstore"
	"github.com/dshills/textmirror/internal/words"
)

// Errors returned by store operations.
var (
	ErrNotOpen     = errors.New("docstore: document not open")
	ErrAlreadyOpen = errors.New("docstore: document already open")
	ErrNoSaver     = errors.New("docstore: no saver configured")
)

// Store tracks open documents by URI.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*entry

	patterns   *words.Registry
	saver      Saver
	backups    *backup.Store
	ending     textstore.LineEnding
	forced     bool
	backupErrs func(uri string, err error)
}

// entry pairs a document with its line store under one lock.
type entry struct {
	mu    sync.Mutex
	store *textstore.Store
	doc   *document.Document
}

// Option configures a Store.
type Option func(*Store)

// WithWordPatterns supplies per-language word patterns for new documents.
func WithWordPatterns(reg *words.Registry) Option {
	return func(s *Store) { s.patterns = reg }
}

// WithSaver supplies the writer used by Save.
func WithSaver(saver Saver) Option {
	return func(s *Store) { s.saver = saver }
}

// WithBackups attaches a hot-exit backup store.
func WithBackups(b *backup.Store) Option {
	return func(s *Store) { s.backups = b }
}

// WithLineEnding forces the mirror terminator instead of detecting it.
func WithLineEnding(le textstore.LineEnding) Option {
	return func(s *Store) {
		s.ending = le
		s.forced = true
	}
}

// WithBackupErrors sets the handler for backup write failures. Backup
// failures never fail the edit that triggered them.
func WithBackupErrors(fn func(uri string, err error)) Option {
	return func(s *Store) { s.backupErrs = fn }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		docs:       make(map[string]*entry),
		backupErrs: func(string, error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open mirrors a document. Opening a URI that is already open is an error.
func (s *Store) Open(uri, languageID, text string, version int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[uri]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyOpen, uri)
	}
	e, err := s.newEntry(uri, languageID, text, version)
	if err != nil {
		return err
	}
	s.docs[uri] = e
	return nil
}

// OpenUntitled mirrors a document with no backing file and returns its
// generated untitled: URI.
func (s *Store) OpenUntitled(languageID, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uri := "untitled:" + uuid.NewString()
	e, err := s.newEntry(uri, languageID, text, 0)
	if err != nil {
		return "", err
	}
	s.docs[uri] = e
	return uri, nil
}

func (s *Store) newEntry(uri, languageID, text string, version int32) (*entry, error) {
	var opts []textstore.Option
	if s.forced {
		opts = append(opts, textstore.WithLineEnding(s.ending))
	}
	st := textstore.New(text, version, opts...)

	doc, err := document.New(st,
		document.WithURI(uri),
		document.WithLanguage(languageID),
		document.WithWordPatterns(s.patterns),
	)
	if err != nil {
		return nil, err
	}
	return &entry{store: st, doc: doc}, nil
}

// Has reports whether a URI is open.
func (s *Store) Has(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[uri]
	return ok
}

// Len reports the number of open documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// URIs returns the open URIs in sorted order.
func (s *Store) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Read runs fn with the document for uri while holding its lock. The
// document must not be retained after fn returns.
func (s *Store) Read(uri string, fn func(*document.Document) error) error {
	e, err := s.entry(uri)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.doc)
}

// Snapshot returns the current text, version, and language of a document.
func (s *Store) Snapshot(uri string) (text string, version int32, languageID string, err error) {
	e, err := s.entry(uri)
	if err != nil {
		return "", 0, "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Text(), e.store.Version(), e.doc.Language(), nil
}

// ApplyChanges applies span edits to a document, advancing its version.
// The edits are applied in order, each against the result of the previous
// one.
func (s *Store) ApplyChanges(ctx context.Context, uri string, edits []textstore.Edit, version int32) error {
	e, err := s.entry(uri)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.ApplyEdits(edits, version); err != nil {
		return err
	}
	e.doc.MarkDirty()
	s.writeBackup(ctx, e)
	return nil
}

// ApplyFullText replaces a document's content, advancing its version.
// Content that already matches line for line only advances the version;
// otherwise the differing line runs are patched in.
func (s *Store) ApplyFullText(ctx context.Context, uri, text string, version int32) error {
	e, err := s.entry(uri)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc.EqualLines(textstore.SplitLines(text)) {
		e.store.SetVersion(version)
		return nil
	}

	if err := applyLineDiff(e.store, text, version); err != nil {
		// The mirror may hold a partial apply; replacing wholesale
		// restores a consistent state.
		e.store.Replace(text, version)
	}
	e.doc.MarkDirty()
	s.writeBackup(ctx, e)
	return nil
}

// SetLanguage changes a document's language identifier.
func (s *Store) SetLanguage(uri, languageID string) error {
	e, err := s.entry(uri)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc.SetLanguage(languageID)
	return nil
}

// MarkSaved clears a document's dirty flag and discards its backup.
func (s *Store) MarkSaved(ctx context.Context, uri string) error {
	e, err := s.entry(uri)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc.MarkSaved()
	s.dropBackup(ctx, uri)
	return nil
}

// Save writes a document through the configured saver, then clears its
// dirty flag and discards its backup.
func (s *Store) Save(ctx context.Context, uri string) error {
	if s.saver == nil {
		return ErrNoSaver
	}
	e, err := s.entry(uri)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := s.saver.Save(ctx, uri, e.store.Text()); err != nil {
		return fmt.Errorf("docstore: save %s: %w", uri, err)
	}
	e.doc.MarkSaved()
	s.dropBackup(ctx, uri)
	return nil
}

// Close stops mirroring a document. A clean document's backup is
// discarded; a dirty document's backup is kept for hot exit.
func (s *Store) Close(ctx context.Context, uri string) error {
	s.mu.Lock()
	e, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}
	delete(s.docs, uri)
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.doc.IsDirty() {
		s.dropBackup(ctx, uri)
	}
	e.doc.Dispose()
	return nil
}

// CloseAll closes every open document, keeping backups of dirty ones.
func (s *Store) CloseAll(ctx context.Context) {
	for _, uri := range s.URIs() {
		_ = s.Close(ctx, uri)
	}
}

// RestoreAll reopens every backed-up document that is not already open
// and returns their URIs. Restored documents start dirty; their backups
// stay until the client saves or cleanly closes them.
func (s *Store) RestoreAll(ctx context.Context) ([]string, error) {
	if s.backups == nil {
		return nil, nil
	}
	records, err := s.backups.List(ctx)
	if err != nil {
		return nil, err
	}

	var restored []string
	for _, rec := range records {
		s.mu.Lock()
		if _, ok := s.docs[rec.URI]; ok {
			s.mu.Unlock()
			continue
		}
		e, err := s.newEntry(rec.URI, rec.Language, rec.Content, rec.Version)
		if err != nil {
			s.mu.Unlock()
			return restored, err
		}
		e.doc.MarkDirty()
		s.docs[rec.URI] = e
		s.mu.Unlock()
		restored = append(restored, rec.URI)
	}
	return restored, nil
}

func (s *Store) entry(uri string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.docs[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}
	return e, nil
}

// writeBackup persists a hot-exit copy. Callers hold the entry lock.
func (s *Store) writeBackup(ctx context.Context, e *entry) {
	if s.backups == nil {
		return
	}
	rec := backup.Record{
		URI:      e.doc.URI(),
		Language: e.doc.Language(),
		Version:  e.store.Version(),
		Content:  e.store.Text(),
	}
	if err := s.backups.Put(ctx, rec); err != nil {
		s.backupErrs(rec.URI, err)
	}
}

func (s *Store) dropBackup(ctx context.Context, uri string) {
	if s.backups == nil {
		return
	}
	if err := s.backups.Delete(ctx, uri); err != nil {
		s.backupErrs(uri, err)
	}
}
