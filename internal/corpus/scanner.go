// Package corpus finds source documents under the content root and watches
// it for changes.
package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ubreader/internal/transform"
)

// ScannedFile represents a source document found during scanning.
type ScannedFile struct {
	RelPath string           // Relative path from the content root (e.g., "papers/scientific/paper-1.md")
	Folder  string           // Folder path (path components except filename, e.g., "papers/scientific")
	AbsPath string           // Absolute file path
	Format  transform.Format // Source format inferred from the extension
	ModTime time.Time
}

// Scanner walks a content root.
type Scanner struct {
	root string
}

// NewScanner creates a Scanner rooted at root.
func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// Root returns the content root.
func (s *Scanner) Root() string {
	return s.root
}

// AbsPath resolves a path relative to the content root.
func (s *Scanner) AbsPath(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

// Scan returns every file with a supported format, in lexical order. Hidden
// files and directories are skipped.
func (s *Scanner) Scan(ctx context.Context) ([]ScannedFile, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to access content root %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content root %s is not a directory", s.root)
	}

	var scannedFiles []ScannedFile
	err = filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path != s.root && isHidden(info.Name()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		format, ok := transform.DetectFormat(path)
		if !ok {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		folder := filepath.ToSlash(filepath.Dir(relPath))
		if folder == "." {
			folder = ""
		}

		scannedFiles = append(scannedFiles, ScannedFile{
			RelPath: relPath,
			Folder:  folder,
			AbsPath: path,
			Format:  format,
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return scannedFiles, fmt.Errorf("failed to scan %s: %w", s.root, err)
	}

	return scannedFiles, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
