package host

import (
	"path/filepath"
	"strings"
)

// PlainText is reported for files with no known language.
const PlainText = "plaintext"

var byExtension = map[string]string{
	".go":     "go",
	".mod":    "go.mod",
	".ts":     "typescript",
	".tsx":    "typescriptreact",
	".js":     "javascript",
	".mjs":    "javascript",
	".cjs":    "javascript",
	".jsx":    "javascriptreact",
	".py":     "python",
	".rs":     "rust",
	".java":   "java",
	".kt":     "kotlin",
	".swift":  "swift",
	".c":      "c",
	".h":      "c",
	".cc":     "cpp",
	".cpp":    "cpp",
	".hpp":    "cpp",
	".cs":     "csharp",
	".rb":     "ruby",
	".php":    "php",
	".lua":    "lua",
	".sh":     "shellscript",
	".bash":   "shellscript",
	".zsh":    "shellscript",
	".sql":    "sql",
	".html":   "html",
	".css":    "css",
	".scss":   "scss",
	".json":   "json",
	".yaml":   "yaml",
	".yml":    "yaml",
	".toml":   "toml",
	".xml":    "xml",
	".md":     "markdown",
	".proto":  "proto3",
	".tf":     "terraform",
	".vue":    "vue",
	".svelte": "svelte",
	".templ":  "templ",
}

var byName = map[string]string{
	"Dockerfile":  "dockerfile",
	"Makefile":    "makefile",
	"go.sum":      "go.sum",
	"Gemfile":     "ruby",
	"Jenkinsfile": "groovy",
}

// LanguageID maps a file path to an editor language identifier.
func LanguageID(path string) string {
	base := filepath.Base(path)
	if id, ok := byName[base]; ok {
		return id
	}
	if id, ok := byExtension[strings.ToLower(filepath.Ext(base))]; ok {
		return id
	}
	return PlainText
}
