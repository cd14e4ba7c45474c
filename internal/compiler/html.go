package compiler

import (
	"html"
	"strings"
)

// TailwindScript is the Tailwind CSS browser build included in standalone documents.
const TailwindScript = "https://cdn.jsdelivr.net/npm/@tailwindcss/browser@4"

var scriptCloser = strings.NewReplacer("</script", `<\/script`, "</SCRIPT", `<\/SCRIPT`)

func standaloneHTML(code string, tailwind bool) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Preview</title>
`)
	if tailwind {
		b.WriteString(`  <script src="` + TailwindScript + `"></script>
`)
	}
	b.WriteString(`  <style>
    body { margin: 0; }
    #root { min-height: 100vh; }
  </style>
</head>
<body>
  <div id="root"></div>
  <script type="module">`)
	b.WriteString(scriptCloser.Replace(code))
	b.WriteString(`</script>
</body>
</html>`)
	return b.String()
}

// ErrorHTML renders a standalone document presenting a build diagnostic.
func ErrorHTML(name, message string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Preview build failed</title>
  <style>
    body { margin: 0; padding: 1rem; font: 13px/1.5 ui-monospace, monospace; }
    pre { padding: 1rem; border: 1px solid #fca5a5; border-radius: 0.5rem; background: #fef2f2; color: #991b1b; white-space: pre-wrap; }
  </style>
</head>
<body>
  <h1>Preview "` + html.EscapeString(name) + `" failed to build</h1>
  <pre>` + html.EscapeString(message) + `</pre>
</body>
</html>`
}
