// Package surface wraps the terminal-rendering library behind the narrow
// interface the bridge needs: write text, resize, render, dispose. All
// access is mutex-guarded; the PTY reader and the UI loop touch the same
// surface from different goroutines.
package surface

import (
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
	"github.com/vito/midterm"
)

// Surface is a thread-safe display surface for one session. After Dispose,
// every method is a no-op: teardown detaches listeners first, but a write
// that slipped past must land harmlessly rather than touch freed state.
type Surface struct {
	mu       sync.Mutex
	term     *midterm.Terminal
	disposed bool
	sel      *Selection
}

// Selection is an inclusive cell range in display coordinates.
type Selection struct {
	StartRow, StartCol int
	EndRow, EndCol     int
}

// New creates a surface with the given dimensions.
func New(rows, cols int) *Surface {
	if rows < 1 {
		rows = 24
	}
	if cols < 1 {
		cols = 80
	}
	return &Surface{
		term: midterm.NewTerminal(rows, cols),
	}
}

// Write feeds raw process output into the terminal emulator.
func (s *Surface) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return len(data), nil
	}
	return s.term.Write(data)
}

// Resize changes the emulator dimensions.
func (s *Surface) Resize(rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.term.Resize(rows, cols)
}

// Dimensions returns the current emulator size.
func (s *Surface) Dimensions() (rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return 0, 0
	}
	return s.term.Height, s.term.Width
}

// Render writes the screen contents to the builder.
func (s *Surface) Render(w *strings.Builder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.term.Height <= 0 || s.term.Width <= 0 {
		return nil
	}
	return s.term.Render(w)
}

// Cursor returns the cursor position.
func (s *Surface) Cursor() (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return 0, 0
	}
	return s.term.Cursor.X, s.term.Cursor.Y
}

// CursorVisible reports whether the cursor should be drawn.
func (s *Surface) CursorVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return false
	}
	return s.term.CursorVisible
}

// SetSelection replaces the current selection. The range is normalized so
// the start never follows the end.
func (s *Surface) SetSelection(sel Selection) {
	if sel.StartRow > sel.EndRow || (sel.StartRow == sel.EndRow && sel.StartCol > sel.EndCol) {
		sel = Selection{
			StartRow: sel.EndRow, StartCol: sel.EndCol,
			EndRow: sel.StartRow, EndCol: sel.StartCol,
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.sel = &sel
}

// ClearSelection drops the selection.
func (s *Surface) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = nil
}

// HasSelection reports whether a selection exists.
func (s *Surface) HasSelection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel != nil
}

// SelectedText extracts the selected cells as text, one line per selected
// row, trailing blanks trimmed. Selection columns are display columns, so
// wide runes count by their render width.
func (s *Surface) SelectedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.sel == nil {
		return ""
	}

	var lines []string
	for row := s.sel.StartRow; row <= s.sel.EndRow && row < len(s.term.Content); row++ {
		startCol := 0
		endCol := s.term.Width - 1
		if row == s.sel.StartRow {
			startCol = s.sel.StartCol
		}
		if row == s.sel.EndRow {
			endCol = s.sel.EndCol
		}
		lines = append(lines, sliceByWidth(s.term.Content[row], startCol, endCol))
	}
	return strings.Join(lines, "\n")
}

// sliceByWidth returns the runes whose display span overlaps the inclusive
// column range [startCol, endCol].
func sliceByWidth(content []rune, startCol, endCol int) string {
	var b strings.Builder
	col := 0
	for _, r := range content {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			w = 1
		}
		if col > endCol {
			break
		}
		if col+w-1 >= startCol {
			b.WriteRune(r)
		}
		col += w
	}
	return strings.TrimRight(b.String(), " \x00")
}

// Dispose marks the surface dead. All later calls are no-ops.
func (s *Surface) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.sel = nil
}

// Disposed reports whether Dispose has been called.
func (s *Surface) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
