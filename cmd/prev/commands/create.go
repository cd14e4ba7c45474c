package commands

import (
	"errors"
	"fmt"

	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/templates"
)

// CreateCmd scaffolds a new preview folder.
type CreateCmd struct {
	Name string `arg:"" optional:"" help:"Preview name (default: example)."`
}

func (c *CreateCmd) Run(_ *Global, root *CLI) error {
	dir, err := root.ResolveRoot("")
	if err != nil {
		return err
	}
	name := templates.PreviewName(c.Name)

	files, err := templates.ScaffoldPreview(dir, name)
	if errors.Is(err, templates.ErrPreviewExists) {
		return derrors.WrapError(err, derrors.CategoryAlreadyExists, "preview already exists").
			WithContext("name", name).Build()
	}
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create preview").
			WithContext("name", name).Build()
	}

	fmt.Println()
	fmt.Printf("  Created previews/%s/\n", name)
	for _, f := range files {
		fmt.Printf("    %s\n", f)
	}
	fmt.Println()
	fmt.Println("  Embed it in any page with:")
	fmt.Printf("    <Preview src=%q />\n", name)
	fmt.Println()
	return nil
}
