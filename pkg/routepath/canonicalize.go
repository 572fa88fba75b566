// Package routepath normalizes page and asset paths and applies the
// deployment base path.
package routepath

import (
	"errors"
	"path"
	"strings"
)

// Path canonicalization errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Parts is a URL reference split into path, query and fragment.
type Parts struct {
	Path     string
	Query    string
	Fragment string
}

// Split splits a reference such as "/movies?x=1#top" into its parts.
// Query and fragment are returned without their leading "?" and "#".
func Split(ref string) Parts {
	var p Parts
	ref, p.Fragment, _ = strings.Cut(ref, "#")
	p.Path, p.Query, _ = strings.Cut(ref, "?")
	return p
}

// Suffix returns the query and fragment in URL form ("?x=1#top").
func (p Parts) Suffix() string {
	var b strings.Builder
	if p.Query != "" {
		b.WriteByte('?')
		b.WriteString(p.Query)
	}
	if p.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(p.Fragment)
	}
	return b.String()
}

// CanonicalizePath normalizes a root-relative path:
//   - a leading slash is added when missing
//   - repeated slashes are collapsed (/data//co2.csv → /data/co2.csv)
//   - "." segments are removed and ".." segments resolved
//   - a trailing slash is removed, except for the root "/"
//
// Backslashes, NUL bytes, malformed percent-escapes and ".." segments that
// would climb above the root are rejected.
func CanonicalizePath(input string) (string, error) {
	if input == "" {
		return "/", nil
	}

	if strings.Contains(input, "\\") {
		return "", ErrBackslashInPath
	}
	if strings.Contains(input, "\x00") || strings.Contains(strings.ToUpper(input), "%00") {
		return "", ErrNullByteInPath
	}
	if strings.Contains(input, "%") {
		if err := validatePercentEscapes(input); err != nil {
			return "", err
		}
	}

	var result []string
	for _, seg := range strings.Split(input, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(result) == 0 {
				return "", ErrPathEscapesRoot
			}
			result = result[:len(result)-1]
		default:
			result = append(result, seg)
		}
	}

	return "/" + strings.Join(result, "/"), nil
}

// validatePercentEscapes checks that all percent-escapes are valid.
// Valid escapes are %XX where X is a hex digit (0-9, a-f, A-F).
func validatePercentEscapes(p string) error {
	i := 0
	for i < len(p) {
		if p[i] == '%' {
			if i+2 >= len(p) {
				return ErrInvalidPercentEscape
			}
			if !isHexDigit(p[i+1]) || !isHexDigit(p[i+2]) {
				return ErrInvalidPercentEscape
			}
			i += 3
		} else {
			i++
		}
	}
	return nil
}

// isHexDigit returns true if c is a valid hex digit.
func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// IsExternal reports whether ref points outside the site: a URL with a
// scheme (https:, mailto:, data:, ...) or a protocol-relative "//host" URL.
func IsExternal(ref string) bool {
	if strings.HasPrefix(ref, "//") {
		return true
	}
	colon := strings.IndexByte(ref, ':')
	if colon <= 0 {
		return false
	}
	// A scheme ends before the first '/', '?' or '#'.
	if i := strings.IndexAny(ref, "/?#"); i >= 0 && i < colon {
		return false
	}
	for i := 0; i < colon; i++ {
		c := ref[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !(c >= '0' && c <= '9') && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

// ResolveReference resolves ref as seen from the page at pagePath and
// returns the root-relative target with its query and fragment.
// ok is false for external references and same-page fragments ("#top"),
// which are left untouched.
func ResolveReference(pagePath, ref string) (target Parts, ok bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || IsExternal(ref) {
		return Parts{}, false
	}

	parts := Split(ref)
	if !strings.HasPrefix(parts.Path, "/") {
		dir := pagePath
		if !strings.HasSuffix(dir, "/") {
			dir = path.Dir(dir)
		}
		parts.Path = strings.TrimSuffix(dir, "/") + "/" + parts.Path
	}
	return parts, true
}
