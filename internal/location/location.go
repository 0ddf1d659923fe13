// Package location tracks where the bundle lives on disk and whether it was
// moved since the previous start.
package location

import (
	"path/filepath"
	"runtime"
	"strings"
)

// InstallLocation pairs the directory the bundle runs from with the
// directory recorded by the last successful start.
type InstallLocation struct {
	RootPath      string
	LastKnownPath string
	FirstStart    bool // No marker existed
}

// Relocated reports whether the bundle moved since the marker was written.
func (l InstallLocation) Relocated() bool {
	return !SamePath(l.RootPath, l.LastKnownPath)
}

// Normalize converts p to forward slashes and drops trailing separators,
// keeping a bare drive root such as "C:/" intact.
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, "/")
	for len(p) > 1 && strings.HasSuffix(p, "/") && !isDriveRoot(p) {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// SamePath compares two paths ignoring separator style. Paths that look like
// Windows paths, or any path on a Windows host, compare case-insensitively.
func SamePath(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if IsWindowsPath(na) || IsWindowsPath(nb) || runtime.GOOS == "windows" {
		return strings.EqualFold(na, nb)
	}
	return na == nb
}

// IsWindowsPath reports whether p starts with a drive letter or a UNC prefix.
func IsWindowsPath(p string) bool {
	if len(p) >= 2 && p[1] == ':' && isLetter(p[0]) {
		return true
	}
	return strings.HasPrefix(p, `\\`) || strings.HasPrefix(p, "//")
}

// ToWindows returns p with backslash separators.
func ToWindows(p string) string {
	return strings.ReplaceAll(Normalize(p), "/", `\`)
}

// ToUnix returns p with forward slash separators.
func ToUnix(p string) string {
	return Normalize(p)
}

// Within reports whether p is root itself or lies below it.
func Within(root, p string) bool {
	nr, np := Normalize(root), Normalize(p)
	fold := IsWindowsPath(nr) || runtime.GOOS == "windows"
	if fold {
		nr, np = strings.ToLower(nr), strings.ToLower(np)
	}
	if np == nr {
		return true
	}
	return strings.HasPrefix(np, strings.TrimSuffix(nr, "/")+"/")
}

// Clean is filepath.Clean plus Abs, falling back to the cleaned input.
func Clean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func isDriveRoot(p string) bool {
	return len(p) == 3 && p[1] == ':' && p[2] == '/' && isLetter(p[0])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
