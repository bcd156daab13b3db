package surface

import (
	"strings"
	"testing"
)

func TestNewClampsDimensions(t *testing.T) {
	s := New(0, -1)
	rows, cols := s.Dimensions()
	if rows != 24 || cols != 80 {
		t.Errorf("expected 24x80 fallback, got %dx%d", rows, cols)
	}
}

func TestWriteAndResize(t *testing.T) {
	s := New(5, 20)
	if _, err := s.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	s.Resize(10, 40)
	rows, cols := s.Dimensions()
	if rows != 10 || cols != 40 {
		t.Errorf("expected 10x40, got %dx%d", rows, cols)
	}
}

func TestSelectedText(t *testing.T) {
	s := New(5, 20)
	s.Write([]byte("hello world"))

	s.SetSelection(Selection{StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 4})
	if got := s.SelectedText(); got != "hello" {
		t.Errorf("got %q, want hello", got)
	}

	s.SetSelection(Selection{StartRow: 0, StartCol: 6, EndRow: 0, EndCol: 10})
	if got := s.SelectedText(); got != "world" {
		t.Errorf("got %q, want world", got)
	}
}

func TestSelectedText_MultiRow(t *testing.T) {
	s := New(5, 20)
	s.Write([]byte("first\r\nsecond"))

	s.SetSelection(Selection{StartRow: 0, StartCol: 0, EndRow: 1, EndCol: 5})
	got := s.SelectedText()
	lines := strings.Split(got, "\n")
	if len(lines) != 2 || lines[0] != "first" || lines[1] != "second" {
		t.Errorf("unexpected selection text %q", got)
	}
}

func TestSetSelectionNormalizes(t *testing.T) {
	s := New(5, 20)
	s.Write([]byte("hello"))

	// Backwards drag: end before start.
	s.SetSelection(Selection{StartRow: 0, StartCol: 4, EndRow: 0, EndCol: 0})
	if got := s.SelectedText(); got != "hello" {
		t.Errorf("got %q, want hello", got)
	}
}

func TestSelectionLifecycle(t *testing.T) {
	s := New(5, 20)
	if s.HasSelection() {
		t.Error("new surface has no selection")
	}

	s.SetSelection(Selection{})
	if !s.HasSelection() {
		t.Error("selection should exist after SetSelection")
	}

	s.ClearSelection()
	if s.HasSelection() {
		t.Error("selection should be gone after ClearSelection")
	}
	if got := s.SelectedText(); got != "" {
		t.Errorf("no selection should give empty text, got %q", got)
	}
}

func TestSliceByWidth_WideRunes(t *testing.T) {
	// "世" occupies two display columns, so columns 0-1 are the first rune
	// and columns 2-3 the second.
	content := []rune("世界ab")

	if got := sliceByWidth(content, 0, 1); got != "世" {
		t.Errorf("cols 0-1: got %q", got)
	}
	if got := sliceByWidth(content, 2, 3); got != "界" {
		t.Errorf("cols 2-3: got %q", got)
	}
	if got := sliceByWidth(content, 4, 5); got != "ab" {
		t.Errorf("cols 4-5: got %q", got)
	}
	// A range straddling a wide rune includes it.
	if got := sliceByWidth(content, 1, 2); got != "世界" {
		t.Errorf("cols 1-2: got %q", got)
	}
}

func TestDisposedSurfaceIsInert(t *testing.T) {
	s := New(5, 20)
	s.Write([]byte("before"))
	s.SetSelection(Selection{EndCol: 5})
	s.Dispose()

	if !s.Disposed() {
		t.Fatal("Disposed() should report true")
	}

	// Every operation after Dispose is a no-op that must not panic.
	if n, err := s.Write([]byte("after")); err != nil || n != 5 {
		t.Errorf("disposed write: n=%d err=%v", n, err)
	}
	s.Resize(50, 100)
	if rows, cols := s.Dimensions(); rows != 0 || cols != 0 {
		t.Errorf("disposed dimensions: %dx%d", rows, cols)
	}
	if s.HasSelection() {
		t.Error("dispose should drop the selection")
	}
	s.SetSelection(Selection{EndCol: 3})
	if s.HasSelection() {
		t.Error("selection must not be settable after dispose")
	}
	if got := s.SelectedText(); got != "" {
		t.Errorf("disposed SelectedText: %q", got)
	}
	var b strings.Builder
	if err := s.Render(&b); err != nil || b.Len() != 0 {
		t.Errorf("disposed render wrote %d bytes, err %v", b.Len(), err)
	}
	if s.CursorVisible() {
		t.Error("disposed cursor should be hidden")
	}
	s.Dispose() // idempotent
}
