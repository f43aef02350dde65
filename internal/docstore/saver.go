package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
)

// Saver writes document content to its destination.
type Saver interface {
	Save(ctx context.Context, uri, text string) error
}

// ErrNotFileURI is returned when a save target is not a file: URI.
var ErrNotFileURI = errors.New("docstore: not a file URI")

// FileSaver writes file: URIs to the local file system.
type FileSaver struct{}

// Save writes text to the path named by uri.
func (FileSaver) Save(_ context.Context, uri, text string) error {
	path, err := PathFromURI(uri)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

// PathFromURI converts a file: URI to a local path.
func PathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("docstore: parse uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %s", ErrNotFileURI, uri)
	}
	return u.Path, nil
}
