package previews

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path"
	"sort"
	"strings"
)

// FileType is the kind of a preview source file, derived from its extension.
type FileType string

const (
	TypeTSX  FileType = "tsx"
	TypeTS   FileType = "ts"
	TypeJSX  FileType = "jsx"
	TypeJS   FileType = "js"
	TypeCSS  FileType = "css"
	TypeHTML FileType = "html"
	TypeJSON FileType = "json"
)

// TypeFor returns the file type for a path and whether it is supported.
func TypeFor(p string) (FileType, bool) {
	switch t := FileType(strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")); t {
	case TypeTSX, TypeTS, TypeJSX, TypeJS, TypeCSS, TypeHTML, TypeJSON:
		return t, true
	default:
		return "", false
	}
}

// PreviewFile is one source file of a preview, addressed relative to the preview folder.
type PreviewFile struct {
	Path    string   `json:"path"`
	Content string   `json:"content"`
	Type    FileType `json:"type"`
}

// PreviewConfig is everything a compiler needs to build one preview.
type PreviewConfig struct {
	Files    []PreviewFile `json:"files"`
	Entry    string        `json:"entry"`
	Tailwind bool          `json:"tailwind,omitempty"`
}

// BuildResult is the outcome of one on-demand compile. BuildTime is in milliseconds.
type BuildResult struct {
	Success   bool   `json:"success"`
	Code      string `json:"code,omitempty"`
	CSS       string `json:"css,omitempty"`
	Error     string `json:"error,omitempty"`
	BuildTime int64  `json:"buildTime,omitempty"`
}

// File returns the file at p, if present.
func (c PreviewConfig) File(p string) (PreviewFile, bool) {
	for _, f := range c.Files {
		if f.Path == p {
			return f, true
		}
	}
	return PreviewFile{}, false
}

// WithFiles returns a copy of c where files replace entries with the same path
// and new paths are added. The result stays sorted by path.
func (c PreviewConfig) WithFiles(files []PreviewFile) PreviewConfig {
	byPath := make(map[string]PreviewFile, len(c.Files)+len(files))
	for _, f := range c.Files {
		byPath[f.Path] = f
	}
	for _, f := range files {
		if f.Type == "" {
			f.Type, _ = TypeFor(f.Path)
		}
		byPath[f.Path] = f
	}

	merged := make([]PreviewFile, 0, len(byPath))
	for _, f := range byPath {
		merged = append(merged, f)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Path < merged[j].Path })

	out := c
	out.Files = merged
	return out
}

// Hash returns a content hash of the configuration, used as an artifact cache key.
func (c PreviewConfig) Hash() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
