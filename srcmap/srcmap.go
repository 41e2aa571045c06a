// Package srcmap interns source file paths into small stable IDs and
// converts byte offsets into line/column positions.
//
// It is the direct descendant of the teacher's pos.go: FileID takes
// the place of the teacher's single-file Range/Span pair, extended
// to span multiple files the way a multi-file compiler front-end
// must (the teacher parses one grammar file per Database; the
// resolver here works across an import graph of many files).
package srcmap

import (
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"
)

// FileID is a stable, small integer identifying a source file.
type FileID int32

// UnknownFileID marks a position with no associated file, e.g. a
// synthetically constructed AST node.
const UnknownFileID FileID = -1

// Pos is a byte offset into a file's contents.
type Pos int32

// Location is a fully resolved position: file, line, column and the
// raw byte cursor it was derived from.
type Location struct {
	File   FileID
	Line   int32
	Column int32
	Cursor Pos
}

// Span is a half-open range between two locations, used to anchor
// every diagnostic and every AST node's SrcTokens.
type Span struct {
	Start Location
	End   Location
}

func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		if s.Start.Column == s.End.Column {
			return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
		}
		return fmt.Sprintf("%d:%d-%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

// Files interns file paths into FileIDs and serves LineIndex lookups
// for each. One Files table is shared by every file in a compile.
type Files struct {
	mu        sync.RWMutex
	ids       map[string]FileID
	paths     []string
	indices   []*LineIndex
	nextID    FileID
}

func NewFiles() *Files {
	return &Files{ids: make(map[string]FileID)}
}

// Intern returns the stable FileID for path, creating one if needed.
func (f *Files) Intern(path string, content []byte) FileID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.ids[path]; ok {
		return id
	}
	id := f.nextID
	f.nextID++
	f.ids[path] = id
	f.paths = append(f.paths, path)
	f.indices = append(f.indices, NewLineIndex(content))
	return id
}

func (f *Files) Path(id FileID) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(f.paths) {
		return "<unknown>"
	}
	return f.paths[id]
}

func (f *Files) LocationAt(id FileID, cursor Pos) Location {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(f.indices) {
		return Location{File: id, Line: 1, Column: 1, Cursor: cursor}
	}
	loc := f.indices[id].LocationAt(cursor)
	loc.File = id
	return loc
}

// LineIndex maps byte offsets in a single file's contents to
// line/column positions in O(log lines) after an O(n) build, exactly
// as the teacher's pos.go LineIndex does for a single grammar file.
type LineIndex struct {
	input     []byte
	lineStart []int
}

func NewLineIndex(input []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range input {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{input: input, lineStart: lineStart}
}

func (li *LineIndex) LocationAt(cursor Pos) Location {
	c := int(cursor)
	if c < 0 {
		c = 0
	}
	if c > len(li.input) {
		c = len(li.input)
	}
	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > c
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	lineStart := li.lineStart[lineIdx]
	col := int32(utf8.RuneCount(li.input[lineStart:c])) + 1
	return Location{Line: int32(lineIdx + 1), Column: col, Cursor: cursor}
}
