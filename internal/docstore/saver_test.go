package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPathFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
		ok   bool
	}{
		{"file:///tmp/a.txt", "/tmp/a.txt", true},
		{"file:///dir%20with%20space/b.txt", "/dir with space/b.txt", true},
		{"untitled:1234", "", false},
		{"https://example.com/x", "", false},
	}
	for _, tt := range tests {
		got, err := PathFromURI(tt.uri)
		if tt.ok {
			if err != nil || got != tt.want {
				t.Errorf("PathFromURI(%q) = %q, %v", tt.uri, got, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("PathFromURI(%q) should fail", tt.uri)
		}
	}
}

func TestFileSaver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.txt")

	err := FileSaver{}.Save(context.Background(), "file://"+path, "written content")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "written content" {
		t.Errorf("file content = %q", data)
	}
}

func TestFileSaverRejectsUntitled(t *testing.T) {
	err := FileSaver{}.Save(context.Background(), "untitled:9", "x")
	if !errors.Is(err, ErrNotFileURI) {
		t.Errorf("Save = %v, want ErrNotFileURI", err)
	}
}
