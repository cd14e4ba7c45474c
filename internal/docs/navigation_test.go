package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNavigation(t *testing.T) {
	pages := []Page{
		{Route: "/", Title: "Welcome", SourceFile: "index.mdx"},
		{Route: "/api/auth", Title: "Auth", SourceFile: "api/auth.md"},
		{Route: "/guide", Title: "User Guide", SourceFile: "guide/index.md"},
		{Route: "/guide/advanced/tuning", Title: "Tuning", SourceFile: "guide/advanced/tuning.md"},
		{Route: "/guide/intro", Title: "Intro", SourceFile: "guide/intro.mdx"},
		{Route: "/zebra", Title: "Zebra", SourceFile: "zebra.md"},
	}

	nav := BuildNavigation(pages)
	require.Len(t, nav, 4)

	assert.Equal(t, NavNode{Kind: NavPage, Title: "Welcome", Route: "/"}, nav[0])

	api := nav[1]
	assert.Equal(t, NavFolder, api.Kind)
	assert.Equal(t, "Api", api.Title)
	assert.Equal(t, "api", api.Name)
	assert.Equal(t, "api", api.Path)
	assert.Equal(t, "folder:api", api.ID())
	require.Len(t, api.Children, 1)
	assert.Equal(t, "/api/auth", api.Children[0].ID())

	guide := nav[2]
	assert.Equal(t, "User Guide", guide.Title)
	require.Len(t, guide.Children, 3)
	assert.Equal(t, "/guide", guide.Children[0].Route)
	advanced := guide.Children[1]
	assert.Equal(t, NavFolder, advanced.Kind)
	assert.Equal(t, "guide/advanced", advanced.Path)
	assert.Equal(t, "Advanced", advanced.Title)
	assert.Equal(t, "/guide/intro", guide.Children[2].Route)

	assert.Equal(t, "/zebra", nav[3].ID())
}

func TestBuildNavigation_Empty(t *testing.T) {
	assert.Empty(t, BuildNavigation(nil))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", Capitalize(""))
	assert.Equal(t, "Getting started", Capitalize("getting-started"))
	assert.Equal(t, "Élan vital", Capitalize("élan-vital"))
	assert.Equal(t, "API", Capitalize("API"))
}

func TestFirstHeading(t *testing.T) {
	assert.Equal(t, "Title", FirstHeading([]byte("intro\n\n## Sub\n\n# Title\n")))
	assert.Equal(t, "", FirstHeading([]byte("## Only second level\n")))
	assert.Equal(t, "Spaced", FirstHeading([]byte("#   Spaced   \n")))
}
