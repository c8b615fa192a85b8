package housekeeper

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// protectedRoots lists locations no operation may touch. The filesystem root
// is deliberately included: anything outside an allowed temp prefix is
// treated as protected unless it sits under one of the allowed prefixes.
var protectedRoots = protectedRootsFor(runtime.GOOS)

func protectedRootsFor(goos string) []string {
	if goos == "windows" {
		return []string{
			`C:\`,
			`C:\Windows`,
			`C:\Program Files`,
			`C:\Program Files (x86)`,
			`C:\Users`,
		}
	}
	return []string{"/", "/home", "/usr", "/etc", "/var", "/bin", "/sbin", "/boot", "/root"}
}

// allowedPrefixes returns the temp locations exempt from the denylist.
func allowedPrefixes() []string {
	prefixes := []string{os.TempDir()}
	if runtime.GOOS != "windows" {
		prefixes = append(prefixes, "/tmp", "/var/tmp")
	}
	return prefixes
}

// resolvePath resolves symlinks and makes the path absolute. Resolution
// failures fall back to the raw path so classification still happens on
// something.
func resolvePath(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return resolved
	}
	return abs
}

// pathWithin reports whether path equals root or is a descendant of it.
// Both arguments must already be absolute.
func pathWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ValidateDirectory gates every operation. It returns the resolved absolute
// path on success, ErrDirectoryNotFound when the path does not exist or is
// not a directory, and ErrProtectedPath when it resolves into a protected
// system location. The temp allowlist is checked first and short-circuits
// the denylist.
func ValidateDirectory(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%s: %w", path, ErrDirectoryNotFound)
	}

	resolved := resolvePath(path)

	for _, prefix := range allowedPrefixes() {
		if pathWithin(resolved, resolvePath(prefix)) {
			return resolved, nil
		}
	}
	for _, root := range protectedRoots {
		if pathWithin(resolved, root) {
			return "", fmt.Errorf("%s: %w", path, ErrProtectedPath)
		}
	}
	return resolved, nil
}
