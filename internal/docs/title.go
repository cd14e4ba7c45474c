package docs

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/prev/internal/frontmatter"
)

var titleParser = goldmark.New().Parser()

// deriveTitle picks the display title: frontmatter title, first level-1
// heading, then the directory (index/readme) or file name.
func deriveTitle(doc frontmatter.Document, rel string) string {
	if t, ok := doc.Frontmatter.String("title"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if h := FirstHeading([]byte(doc.Content)); h != "" {
		return h
	}

	base := path.Base(rel)
	base = strings.TrimSuffix(base, path.Ext(base))
	if isIndexName(base) {
		dir := path.Dir(rel)
		if dir == "." {
			return "Home"
		}
		return Capitalize(path.Base(dir))
	}
	return Capitalize(base)
}

// FirstHeading returns the text of the first level-1 heading in a Markdown body.
func FirstHeading(body []byte) string {
	root := titleParser.Parse(text.NewReader(body))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level != 1 {
			return gmast.WalkContinue, nil
		}
		var sb strings.Builder
		lines := h.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(body))
		}
		if t := strings.TrimSpace(sb.String()); t != "" {
			title = t
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

// Capitalize upper-cases the first rune and turns dashes into spaces.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ReplaceAll(s[size:], "-", " ")
}
