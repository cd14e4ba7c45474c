package compiler

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/prev/internal/previews"
)

const virtualNamespace = "prev-virtual"

// probeExtensions is the order in which extensionless relative imports are tried.
var probeExtensions = []string{".tsx", ".ts", ".jsx", ".js", ".css"}

var defaultExportPattern = regexp.MustCompile(`export\s+default`)

// splitPackage splits a bare import into package and subpath. Scoped packages
// keep their scope: "@scope/pkg/sub" is ("@scope/pkg", "sub").
func splitPackage(importPath string) (pkg, sub string) {
	parts := strings.Split(importPath, "/")
	n := 1
	if strings.HasPrefix(importPath, "@") && len(parts) > 1 {
		n = 2
	}
	if n > len(parts) {
		n = len(parts)
	}
	return strings.Join(parts[:n], "/"), strings.Join(parts[n:], "/")
}

// cdnURL maps a bare import to its CDN location.
func (c *Compiler) cdnURL(importPath string) string {
	pkg, sub := splitPackage(importPath)
	url := c.opts.CDNBase + "/" + pkg
	if pin := c.opts.Pins[pkg]; pin != "" {
		url += "@" + pin
	}
	if sub != "" {
		url += "/" + sub
	}
	return url
}

// vfs is a preview's file set keyed by slash path.
type vfs map[string]previews.PreviewFile

func newVFS(cfg previews.PreviewConfig) vfs {
	fs := make(vfs, len(cfg.Files))
	for _, f := range cfg.Files {
		fs[path.Clean(strings.TrimPrefix(f.Path, "./"))] = f
	}
	return fs
}

// resolve finds the file a relative import refers to. fromDir is the
// importing file's directory inside the file set.
func (fs vfs) resolve(fromDir, importPath string) (string, bool) {
	target := path.Clean(path.Join(fromDir, importPath))
	if strings.HasPrefix(target, "../") || target == ".." {
		return "", false
	}
	if _, ok := fs[target]; ok {
		return target, true
	}
	for _, ext := range probeExtensions {
		if _, ok := fs[target+ext]; ok {
			return target + ext, true
		}
	}
	for _, ext := range probeExtensions {
		candidate := path.Join(target, "index"+ext)
		if _, ok := fs[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

func loaderFor(t previews.FileType) api.Loader {
	switch t {
	case previews.TypeTSX:
		return api.LoaderTSX
	case previews.TypeTS:
		return api.LoaderTS
	case previews.TypeJSX:
		return api.LoaderJSX
	case previews.TypeJS:
		return api.LoaderJS
	case previews.TypeJSON:
		return api.LoaderJSON
	case previews.TypeHTML:
		return api.LoaderText
	default:
		return api.LoaderTSX
	}
}

var templateEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`", "$", "\\$")

// styleModule turns a style sheet into a script that appends it to document.head.
func styleModule(css string) string {
	return fmt.Sprintf("const style = document.createElement('style');\n"+
		"style.textContent = `%s`;\n"+
		"document.head.appendChild(style);\n", templateEscaper.Replace(css))
}

// entryWrapper returns the synthetic entry: a React mount for entries with a
// default export, a side-effect import otherwise.
func entryWrapper(entry previews.PreviewFile) string {
	importPath := "./" + strings.TrimPrefix(entry.Path, "./")
	if !defaultExportPattern.MatchString(entry.Content) {
		return fmt.Sprintf("import %q\n", importPath)
	}
	return fmt.Sprintf(`import React from 'react'
import { createRoot } from 'react-dom/client'
import App from %q

const root = createRoot(document.getElementById('root'))
root.render(React.createElement(App))
`, importPath)
}

// plugin wires the resolution policy into esbuild.
func (c *Compiler) plugin(files vfs) api.Plugin {
	return api.Plugin{
		Name: "prev-virtual-fs",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^https?://`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})

			build.OnResolve(api.OnResolveOptions{Filter: `^[^./]`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: c.cdnURL(args.Path), External: true}, nil
				})

			build.OnResolve(api.OnResolveOptions{Filter: `^\.`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					fromDir := "."
					if args.Namespace == virtualNamespace {
						fromDir = path.Dir(args.Importer)
					}
					resolved, ok := files.resolve(fromDir, args.Path)
					if !ok {
						return api.OnResolveResult{}, fmt.Errorf("cannot resolve %q: no such file in preview", args.Path)
					}
					return api.OnResolveResult{Path: resolved, Namespace: virtualNamespace}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: virtualNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					f, ok := files[args.Path]
					if !ok {
						empty := ""
						return api.OnLoadResult{Contents: &empty, Loader: api.LoaderEmpty}, nil
					}
					if f.Type == previews.TypeCSS {
						code := styleModule(f.Content)
						return api.OnLoadResult{Contents: &code, Loader: api.LoaderJS}, nil
					}
					contents := f.Content
					return api.OnLoadResult{Contents: &contents, Loader: loaderFor(f.Type)}, nil
				})
		},
	}
}
