package helpers

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// NormalizePath converts a path to forward slashes and trims leading and
// trailing separators. The result is the canonical MetaStore key form.
func NormalizePath(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	return strings.Trim(p, "/")
}

// SamePath reports whether two paths refer to the same node, ignoring
// separator style and case.
func SamePath(a, b string) bool {
	return strings.EqualFold(NormalizePath(a), NormalizePath(b))
}

// FoldPath returns the case-insensitive comparison form of a path.
func FoldPath(path string) string {
	return strings.ToLower(NormalizePath(path))
}

// WithinRoot resolves relPath under root and rejects anything that escapes
// the root via traversal. Returns the absolute path on success.
func WithinRoot(root, relPath string) (string, error) {
	cleanRoot := filepath.Clean(root)
	full := filepath.Join(cleanRoot, filepath.FromSlash(NormalizePath(relPath)))
	if full != cleanRoot && !strings.HasPrefix(full, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the storage root", relPath)
	}
	return full, nil
}

// BaseName returns the filename without its extension.
func BaseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

var counterSuffix = regexp.MustCompile(`\s*\(\d+\)$`)

// StripCounterSuffix removes a trailing " (n)" copy counter from a file
// basename, keeping the extension: "model (1).safetensors" becomes
// "model.safetensors".
func StripCounterSuffix(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return counterSuffix.ReplaceAllString(base, "") + ext
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
