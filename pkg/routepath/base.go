package routepath

import (
	"fmt"
	"strings"
)

// ValidateBase checks a deployment base path. The base is either empty
// (served from the domain root) or a root-relative prefix such as
// "/CSCI5609GP" that does not end with a slash.
func ValidateBase(base string) error {
	if base == "" {
		return nil
	}
	if !strings.HasPrefix(base, "/") {
		return fmt.Errorf("base path %q must start with '/'", base)
	}
	if strings.HasSuffix(base, "/") {
		return fmt.Errorf("base path %q must not end with '/'", base)
	}
	if strings.ContainsAny(base, "?#\\ \t\n") {
		return fmt.Errorf("base path %q must not contain query, fragment, backslash or whitespace", base)
	}
	clean, err := CanonicalizePath(base)
	if err != nil {
		return fmt.Errorf("base path %q: %w", base, err)
	}
	if clean != base {
		return fmt.Errorf("base path %q is not canonical (want %q)", base, clean)
	}
	return nil
}

// Resolve prefixes a root-relative pathname with base. The result is always
// "{base}{p}", so "/" under "/CSCI5609GP" becomes "/CSCI5609GP/".
func Resolve(base, p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}

// Strip removes base from a request path. ok is false when the path is
// outside the base.
func Strip(base, urlPath string) (string, bool) {
	if base == "" {
		return urlPath, strings.HasPrefix(urlPath, "/")
	}
	if urlPath == base {
		return "/", true
	}
	rest, found := strings.CutPrefix(urlPath, base)
	if !found || !strings.HasPrefix(rest, "/") {
		return "", false
	}
	return rest, true
}
