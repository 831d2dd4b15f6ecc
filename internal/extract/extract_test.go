package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/passagedb/passage/internal/errdefs"
)

func TestSupportedExtension(t *testing.T) {
	supported := []string{"a.txt", "b.md", "c.markdown", "d.text", "UPPER.TXT", "dir/nested.md"}
	for _, name := range supported {
		if !SupportedExtension(name) {
			t.Errorf("SupportedExtension(%q) = false", name)
		}
	}

	unsupported := []string{"a.pdf", "b.docx", "c.png", "noext", "d.txt.gz"}
	for _, name := range unsupported {
		if SupportedExtension(name) {
			t.Errorf("SupportedExtension(%q) = true", name)
		}
	}
}

func TestTextAccepts(t *testing.T) {
	content := "Hello, 世界!\nSecond line."
	got, err := Text("doc.txt", []byte(content), 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != content {
		t.Errorf("Text = %q, want %q", got, content)
	}
}

func TestTextTooLarge(t *testing.T) {
	data := []byte(strings.Repeat("x", 100))
	_, err := Text("big.txt", data, 50)
	if !errors.Is(err, errdefs.ErrFileTooLarge) {
		t.Errorf("expected file too large, got %v", err)
	}

	// Exactly at the limit is fine.
	if _, err := Text("ok.txt", data, 100); err != nil {
		t.Errorf("file at limit rejected: %v", err)
	}
}

func TestTextUnsupportedExtension(t *testing.T) {
	_, err := Text("report.pdf", []byte("%PDF-1.4"), 0)
	if !errors.Is(err, errdefs.ErrUnsupportedFormat) {
		t.Errorf("expected unsupported format, got %v", err)
	}
}

func TestTextInvalidUTF8(t *testing.T) {
	_, err := Text("binary.txt", []byte{0xff, 0xfe, 0x00, 0x01}, 0)
	if !errors.Is(err, errdefs.ErrUnsupportedFormat) {
		t.Errorf("expected unsupported format, got %v", err)
	}
}

func TestTextSizeCheckedBeforeFormat(t *testing.T) {
	// An oversized file reports the size error even when the format is
	// also unsupported.
	data := []byte(strings.Repeat("x", 100))
	_, err := Text("big.pdf", data, 50)
	if !errors.Is(err, errdefs.ErrFileTooLarge) {
		t.Errorf("expected file too large, got %v", err)
	}
}
