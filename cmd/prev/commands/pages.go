package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/prev/internal/docs"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/ordering"
	"git.home.luguber.info/inful/prev/internal/site"
)

// PagesCmd prints the resolved pages and the sidebar tree.
type PagesCmd struct {
	Dir  string `arg:"" optional:"" help:"Project directory (default: current directory)."`
	JSON bool   `name:"json" help:"Print the navigation module as JSON."`
}

func (p *PagesCmd) Run(_ *Global, root *CLI) error {
	dir, err := root.ResolveRoot(p.Dir)
	if err != nil {
		return err
	}
	cfg, err := root.LoadProject(dir)
	if err != nil {
		return err
	}

	module, err := site.New(dir, site.Options{Include: cfg.Include}).
		Module(cfg.Hidden, ordering.Normalize(cfg.Order))
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryDocs, "failed to scan pages").Build()
	}

	if p.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(module)
	}
	return WriteModule(os.Stdout, module)
}

// WriteModule prints a page table followed by the indented sidebar.
func WriteModule(w io.Writer, m site.Module) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ROUTE\tTITLE\tFILE\tHIDDEN")
	for _, pg := range m.Pages {
		hidden := ""
		if pg.Hidden {
			hidden = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", pg.Route, pg.Title, pg.SourceFile, hidden)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Sidebar:")
	writeNav(w, m.Sidebar, 1)
	return nil
}

func writeNav(w io.Writer, nodes []docs.NavNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.Kind == docs.NavFolder {
			_, _ = fmt.Fprintf(w, "%s%s/\n", indent, n.Title)
			writeNav(w, n.Children, depth+1)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s%s  %s\n", indent, n.Title, n.Route)
	}
}
