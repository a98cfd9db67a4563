package document

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// supportedExtensions is the set of file extensions the parser can handle.
var supportedExtensions = map[string]bool{
	".docx": true,
	".doc":  true,
	".pdf":  true,
	".txt":  true,
	".md":   true,
}

// Supported reports whether the file at path has an ingestible extension.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Locate recursively walks root and returns the absolute paths of all
// ingestible files, sorted for a reproducible processing order. Hidden
// directories (name starting with ".") are skipped. An unreadable or
// missing root yields an empty result, not an error: "nothing to ingest"
// is a valid outcome.
func Locate(root string) []string {
	var paths []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip unreadable entries; an error on the root itself
			// ends the walk with no results.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !Supported(path) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		paths = append(paths, abs)
		return nil
	})
	sort.Strings(paths)
	return paths
}

// Category derives a document's category from its location: the name of
// the immediate parent folder relative to the ingest root. Files directly
// under the root have no category.
func Category(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	dir := filepath.Dir(rel)
	if dir == "." {
		return ""
	}
	return filepath.Base(dir)
}
