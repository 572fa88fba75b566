package export

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/internal/routes"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

// urlAttrs are the attributes holding URLs that the export rewrites.
var urlAttrs = map[string]bool{
	"href":     true,
	"src":      true,
	"data-src": true,
	"poster":   true,
	"action":   true,
	"srcset":   true,
}

// Target kinds a reference can resolve to.
const (
	TargetRoute = "route"
	TargetAsset = "asset"
)

// Reference is an internal URL found in a rendered page.
type Reference struct {
	// Attr is the attribute it was found in.
	Attr string

	// Target is the resolved root-relative path, without base.
	Target string

	// Kind is TargetRoute or TargetAsset.
	Kind string
}

// rewriter prefixes every internal URL with the base path and fails on
// references that do not resolve to an exported page or file.
type rewriter struct {
	base          string
	trailingSlash string

	// isPage reports whether a canonical pathname is exported.
	isPage func(string) bool

	// isFile reports whether a root-relative path is an emitted file
	// (catalog asset or generated file).
	isFile func(string) bool
}

// rewrite returns page with internal URLs rewritten, and the references
// it found. pathname is the page's own pathname.
func (rw *rewriter) rewrite(pathname string, page []byte) ([]byte, []Reference, error) {
	pageURL := routes.Href(pathname, rw.trailingSlash)

	var (
		out  bytes.Buffer
		refs []Reference
	)
	out.Grow(len(page) + len(page)/16)

	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, nil, err
			}
			return out.Bytes(), refs, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			raw := append([]byte(nil), z.Raw()...)
			tok := z.Token()

			changed := false
			for i, a := range tok.Attr {
				if a.Namespace != "" || !urlAttrs[a.Key] {
					continue
				}
				val, found, err := rw.attr(pageURL, a.Key, a.Val)
				if err != nil {
					return nil, nil, err
				}
				refs = append(refs, found...)
				if val != a.Val {
					tok.Attr[i].Val = val
					changed = true
				}
			}
			if !changed {
				out.Write(raw)
				continue
			}
			writeTag(&out, tok, tt == html.SelfClosingTagToken)

		default:
			out.Write(z.Raw())
		}
	}
}

func (rw *rewriter) attr(pageURL, key, val string) (string, []Reference, error) {
	if key != "srcset" {
		resolved, ref, err := rw.resolve(pageURL, val)
		if err != nil || ref == nil {
			return val, nil, err
		}
		ref.Attr = key
		return resolved, []Reference{*ref}, nil
	}

	// srcset: "a.webp 1x, b.webp 2x"
	candidates := strings.Split(val, ",")
	var refs []Reference
	for i, c := range candidates {
		fields := strings.Fields(c)
		if len(fields) == 0 {
			continue
		}
		resolved, ref, err := rw.resolve(pageURL, fields[0])
		if err != nil {
			return val, nil, err
		}
		if ref != nil {
			ref.Attr = key
			refs = append(refs, *ref)
			fields[0] = resolved
		}
		candidates[i] = strings.Join(fields, " ")
	}
	return strings.Join(candidates, ", "), refs, nil
}

// resolve maps one reference to its deployed URL. External references
// and same-page fragments are returned unchanged with a nil Reference.
func (rw *rewriter) resolve(pageURL, ref string) (string, *Reference, error) {
	parts, ok := routepath.ResolveReference(pageURL, ref)
	if !ok {
		return ref, nil, nil
	}

	target, err := routepath.CanonicalizePath(parts.Path)
	if err != nil {
		return "", nil, errors.AssetNotFound(ref).
			WithDetail(fmt.Sprintf("Reference %q is not a valid path: %v.", ref, err))
	}

	// Lookups use the decoded path; the output keeps the escaped form
	// html/template produced.
	name, err := url.PathUnescape(target)
	if err != nil {
		return "", nil, errors.AssetNotFound(ref).
			WithDetail(fmt.Sprintf("Reference %q is not a valid path: %v.", ref, err))
	}

	switch {
	case rw.isPage(name):
		return routepath.Resolve(rw.base, routes.Href(target, rw.trailingSlash)) + parts.Suffix(),
			&Reference{Target: name, Kind: TargetRoute}, nil

	case rw.isFile(name):
		return routepath.Resolve(rw.base, target) + parts.Suffix(),
			&Reference{Target: name, Kind: TargetAsset}, nil

	case path.Ext(name) != "":
		return "", nil, errors.AssetNotFound(ref).
			WithSuggestion(fmt.Sprintf("Add %s to the static directory or fix the reference", name))

	default:
		return "", nil, errors.New(errors.CodeUnknownRoute).
			WithDetail(fmt.Sprintf("Link %q points to %s, which is not an exported page.", ref, target))
	}
}

// writeTag serializes a start tag with its (possibly rewritten) attributes.
func writeTag(out *bytes.Buffer, tok html.Token, selfClosing bool) {
	out.WriteByte('<')
	out.WriteString(tok.Data)
	for _, a := range tok.Attr {
		out.WriteByte(' ')
		if a.Namespace != "" {
			out.WriteString(a.Namespace)
			out.WriteByte(':')
		}
		out.WriteString(a.Key)
		out.WriteString(`="`)
		out.WriteString(html.EscapeString(a.Val))
		out.WriteByte('"')
	}
	if selfClosing {
		out.WriteString("/")
	}
	out.WriteByte('>')
}
