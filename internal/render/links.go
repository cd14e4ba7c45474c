package render

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/prev/internal/docs"
)

// RewriteLinks rewrites relative href/src attributes in an HTML fragment:
// links to .md/.mdx files become page routes, other relative paths are
// resolved against the page's directory.
func RewriteLinks(fragment, sourceFile string) (string, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return "", err
	}

	dir := path.Dir(sourceFile)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for i, attr := range n.Attr {
				if attr.Key == "href" || (attr.Key == "src" && n.DataAtom == atom.Img) {
					n.Attr[i].Val = rewriteTarget(attr.Val, dir)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		walk(n)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewriteTarget(target, dir string) string {
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" || strings.HasPrefix(u.Path, "/") {
		return target
	}

	resolved := path.Join(dir, u.Path)
	if strings.HasPrefix(resolved, "../") || resolved == ".." {
		return target
	}

	ext := strings.ToLower(path.Ext(resolved))
	var out string
	if ext == ".md" || ext == ".mdx" {
		out = docs.RouteFor(resolved)
	} else {
		out = "/" + resolved
	}
	if u.Fragment != "" {
		out += "#" + u.Fragment
	}
	return out
}
