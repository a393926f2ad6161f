package checks

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// stubMarkers are the substrings that conventionally mark unfinished code
// across the language conventions ROTD projects use.
var stubMarkers = []string{
	"#[rotd_stub]",
	"TODO" + "(",
	"unimplemented!",
	"todo!",
	`throw new Error("TODO")`,
}

// sourceExtensions limits the scan to source files.
var sourceExtensions = map[string]bool{
	".rs":  true,
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
	".go":  true,
}

// StubScanner reports whether stub markers remain anywhere in the source tree.
type StubScanner interface {
	HasStubs() bool
}

// MarkerScanner walks the configured source directories looking for stub
// markers. Scan errors fail open: an unreadable tree reports no stubs rather
// than failing the criterion for an environmental reason.
type MarkerScanner struct {
	root    string
	dirs    []string
	markers []string
}

// NewMarkerScanner returns a scanner over the given dirs (relative to root).
// Extra markers are searched in addition to the built-in set.
func NewMarkerScanner(root string, dirs []string, extra ...string) *MarkerScanner {
	if root == "" {
		root = "."
	}
	if len(dirs) == 0 {
		dirs = []string{"src"}
	}
	markers := make([]string, 0, len(stubMarkers)+len(extra))
	markers = append(markers, stubMarkers...)
	markers = append(markers, extra...)
	return &MarkerScanner{root: root, dirs: dirs, markers: markers}
}

// HasStubs reports whether any marker occurs in any scanned source file.
func (s *MarkerScanner) HasStubs() bool {
	for _, dir := range s.dirs {
		if s.scanDir(filepath.Join(s.root, dir)) {
			return true
		}
	}
	return false
}

func (s *MarkerScanner) scanDir(dir string) bool {
	found := false
	// WalkDir errors are swallowed: a missing or unreadable directory means
	// "no stubs found" here.
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found {
			return nil
		}
		if d.IsDir() || !sourceExtensions[filepath.Ext(path)] {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		for _, marker := range s.markers {
			if strings.Contains(string(content), marker) {
				found = true
				return fs.SkipAll
			}
		}
		return nil
	})
	return found
}

// StaticStubs is a StubScanner with a fixed answer, for tests.
type StaticStubs bool

// HasStubs returns the fixed answer.
func (s StaticStubs) HasStubs() bool { return bool(s) }
