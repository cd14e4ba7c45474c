// Package render turns page sources into HTML fragments for the app shell.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/prev/internal/docs"
	"git.home.luguber.info/inful/prev/internal/frontmatter"
)

// Fragment is a rendered page.
type Fragment struct {
	Route       string          `json:"route"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Frontmatter frontmatter.Map `json:"frontmatter,omitempty"`
	HTML        string          `json:"html"`
	Fingerprint string          `json:"fingerprint"`
}

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)}
}

// Render converts a page source to HTML and rewrites relative links to other
// page files into their routes.
func (r *Renderer) Render(page docs.Page, source []byte) (Fragment, error) {
	fm, body, _, _, err := frontmatter.Split(source)
	if err != nil {
		fm, body = nil, source
	}

	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return Fragment{}, fmt.Errorf("render %s: %w", page.SourceFile, err)
	}

	out, err := RewriteLinks(buf.String(), page.SourceFile)
	if err != nil {
		return Fragment{}, fmt.Errorf("rewrite links in %s: %w", page.SourceFile, err)
	}

	return Fragment{
		Route:       page.Route,
		Title:       page.Title,
		Description: page.Description,
		Frontmatter: page.Frontmatter,
		HTML:        out,
		Fingerprint: Fingerprint(fm, body),
	}, nil
}

// Fingerprint returns the content fingerprint of a page's raw frontmatter and body.
func Fingerprint(fm, body []byte) string {
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fm), "\n"), string(body))
}
