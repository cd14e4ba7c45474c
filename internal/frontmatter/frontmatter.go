package frontmatter

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Style captures the newline shape of a document.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Map holds typed frontmatter values: string, bool, float64 or []string.
type Map map[string]any

// Document is the result of Parse.
type Document struct {
	Frontmatter Map
	Content     string
}

// ErrMissingClosingDelimiter indicates the document started with a frontmatter
// delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

var numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Split separates a `---` delimited frontmatter block from the body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. A closing delimiter at end of input (no trailing newline)
// is accepted.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	start := len(open)
	rest := content[start:]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, style, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return []byte{}, []byte{}, true, style, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, style, nil
	}

	closeAtEOF := []byte(nl + "---")
	if bytes.HasSuffix(rest, closeAtEOF) {
		idx := len(rest) - len(closeAtEOF)
		return rest[:idx+len(nl)], []byte{}, true, style, nil
	}

	return nil, nil, false, style, ErrMissingClosingDelimiter
}

// Parse extracts the leading key: value block of content.
//
// Only single-level scalars and inline [a, b] arrays are recognized. When no
// block is present, or the block is not terminated, the frontmatter is empty
// and Content is the input unchanged.
func Parse(content string) Document {
	raw, body, had, _, err := Split([]byte(content))
	if err != nil || !had {
		return Document{Frontmatter: Map{}, Content: content}
	}
	return Document{Frontmatter: ParseBlock(string(raw)), Content: string(body)}
}

// ParseBlock scans raw frontmatter lines (without delimiters). Lines without a
// key: value shape are skipped.
func ParseBlock(raw string) Map {
	fields := Map{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			continue
		}
		fields[key] = parseValue(strings.TrimSpace(value))
	}
	return fields
}

func parseValue(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	if numberPattern.MatchString(value) {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		inner := strings.TrimSpace(value[1 : len(value)-1])
		items := []string{}
		if inner == "" {
			return items
		}
		for _, item := range strings.Split(inner, ",") {
			items = append(items, unquote(strings.TrimSpace(item)))
		}
		return items
	}
	return unquote(value)
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// String returns the value for key when it is a string.
func (m Map) String(key string) (string, bool) {
	v, ok := m[key].(string)
	return v, ok
}

// Bool returns the value for key when it is a boolean.
func (m Map) Bool(key string) bool {
	v, _ := m[key].(bool)
	return v
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && (content[len(content)-1] == '\n')

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
