package chunker

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	chunks, err := Split("", 100, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}

	chunks, err = Split("   \n\t  ", 100, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("whitespace-only input: expected no chunks, got %d", len(chunks))
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	chunks, err := Split("hello   world", 100, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "hello world" {
		t.Errorf("expected normalized text, got %q", chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
}

func TestSplit_RejectsOverlapGteSize(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{
		{100, 100},
		{100, 150},
		{1, 1},
	} {
		if _, err := Split("some text", tc.size, tc.overlap); err == nil {
			t.Errorf("size=%d overlap=%d: expected error", tc.size, tc.overlap)
		}
	}
}

func TestSplit_RejectsNonPositiveSize(t *testing.T) {
	if _, err := Split("text", 0, 0); err == nil {
		t.Error("size=0: expected error")
	}
	if _, err := Split("text", -5, 0); err == nil {
		t.Error("negative size: expected error")
	}
}

func TestSplit_WindowsAndIndices(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars, no whitespace
	size, overlap := 40, 10
	chunks, err := Split(text, size, overlap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// starts: 0, 30, 60 -> 3 windows, the last one reaching the end
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d: index %d", i, c.Index)
		}
		if len(c.Text) > size {
			t.Errorf("chunk %d longer than size: %d", i, len(c.Text))
		}
	}
	if chunks[2].Text != text[60:] {
		t.Errorf("last chunk mismatch: %q", chunks[2].Text)
	}
}

func TestSplit_OverlapReconstructsOriginal(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. " + strings.Repeat("lorem ipsum dolor sit amet ", 20)
	size, overlap := 50, 15
	chunks, err := Split(text, size, overlap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Dropping each chunk's overlapped prefix reconstructs the normalized text.
	var b strings.Builder
	b.WriteString(chunks[0].Text)
	for _, c := range chunks[1:] {
		b.WriteString(c.Text[overlap:])
	}
	if got, want := b.String(), Normalize(text); got != want {
		t.Errorf("reconstruction mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("determinism matters ", 50)
	a, err := Split(text, 64, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Split(text, 64, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs", i)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  a  b\t\nc  ", "a b c"},
		{"already normal", "already normal"},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
