// Package scope is the Scope & Symbol Table component (spec.md §2 S,
// §4.S): declaration sets, the local scope stack, the global/file/
// namespace tree, and import splicing.
package scope

import (
	"fmt"
	"os"
	"path/filepath"
)

// ImportLoader resolves an import path relative to the file that
// names it and loads its content, grounded in the teacher's
// ImportLoader interface (grammar_import.go/grammar_import_loaders.go),
// generalized from grammar files to source files.
type ImportLoader interface {
	GetPath(importPath, parentPath string) (string, error)
	GetContent(path string) ([]byte, error)
}

// FileImportLoader reads files relative to the importing file's
// directory, the production implementation (grounded in
// RelativeImportLoader).
type FileImportLoader struct{}

func NewFileImportLoader() *FileImportLoader { return &FileImportLoader{} }

func (FileImportLoader) GetPath(importPath, parentPath string) (string, error) {
	return relativePath(importPath, parentPath)
}

func (FileImportLoader) GetContent(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// InMemoryImportLoader serves pre-registered file content, used by
// tests that need multi-file import graphs without touching disk
// (grounded in InMemoryImportLoader).
type InMemoryImportLoader struct {
	files map[string][]byte
}

func NewInMemoryImportLoader() *InMemoryImportLoader {
	return &InMemoryImportLoader{files: map[string][]byte{}}
}

func (l *InMemoryImportLoader) Add(path string, content []byte) {
	l.files[path] = content
}

func (l *InMemoryImportLoader) GetPath(importPath, parentPath string) (string, error) {
	return relativePath(importPath, parentPath)
}

func (l *InMemoryImportLoader) GetContent(path string) ([]byte, error) {
	b, ok := l.files[path]
	if !ok {
		return nil, fmt.Errorf("scope: import not found: %s", path)
	}
	return b, nil
}

func relativePath(importPath, parentPath string) (string, error) {
	if importPath == parentPath {
		return importPath, nil
	}
	if len(importPath) < 3 || importPath[:2] != "./" {
		return "", fmt.Errorf("scope: import path must be relative to the importing file: %s", importPath)
	}
	return filepath.Join(filepath.Dir(parentPath), importPath[2:]), nil
}
