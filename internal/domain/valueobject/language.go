package valueobject

import (
	"path/filepath"
	"slices"
	"strings"
)

// Canonical language identifiers stored on challenges.
const (
	LanguageJavaScript = "javascript"
	LanguageTypeScript = "typescript"
	LanguagePython     = "python"
	LanguageGo         = "go"
	LanguageRust       = "rust"
	LanguageJava       = "java"
	LanguageCPlusPlus  = "cpp"
	LanguageC          = "c"
	LanguageRuby       = "ruby"
	LanguagePHP        = "php"
	LanguageLua        = "lua"
	LanguageScala      = "scala"
	LanguageCSharp     = "csharp"
	LanguageUnknown    = "unknown"
)

// extensionLanguages maps a bare, lower-case file extension to its canonical language.
//
//nolint:gochecknoglobals // fixed lookup table
var extensionLanguages = map[string]string{
	"js":    LanguageJavaScript,
	"ts":    LanguageTypeScript,
	"tsx":   LanguageTypeScript,
	"py":    LanguagePython,
	"go":    LanguageGo,
	"rs":    LanguageRust,
	"java":  LanguageJava,
	"cpp":   LanguageCPlusPlus,
	"hpp":   LanguageCPlusPlus,
	"h":     LanguageC,
	"c":     LanguageC,
	"rb":    LanguageRuby,
	"php":   LanguagePHP,
	"lua":   LanguageLua,
	"scala": LanguageScala,
	"cs":    LanguageCSharp,
}

// languageExtensions is the walker's filter: which extensions are collected when a
// language is requested. Headers (.h) are collected for both c and cpp.
//
//nolint:gochecknoglobals // fixed lookup table
var languageExtensions = map[string][]string{
	LanguageGo:         {"go"},
	LanguageJavaScript: {"js"},
	LanguageTypeScript: {"ts", "tsx"},
	LanguagePython:     {"py"},
	LanguageRust:       {"rs"},
	LanguageJava:       {"java"},
	LanguageCPlusPlus:  {"cpp", "hpp", "h"},
	LanguageC:          {"c", "h"},
	LanguageRuby:       {"rb"},
	LanguagePHP:        {"php"},
	LanguageLua:        {"lua"},
	LanguageScala:      {"scala"},
	LanguageCSharp:     {"cs"},
}

//nolint:gochecknoglobals // fixed lookup table
var displayNames = map[string]string{
	LanguageJavaScript: "JavaScript",
	LanguageTypeScript: "TypeScript",
	LanguageRust:       "Rust",
	LanguageC:          "C",
	LanguageJava:       "Java",
	LanguageCPlusPlus:  "C++",
	LanguageGo:         "Go",
	LanguageLua:        "Lua",
	LanguagePHP:        "PHP",
	LanguagePython:     "Python",
	LanguageRuby:       "Ruby",
	LanguageCSharp:     "C-Sharp",
	LanguageScala:      "Scala",
}

// LanguageFromExtension returns the canonical language for a file extension.
// The extension may be given with or without its leading dot. Unmapped or empty
// extensions yield LanguageUnknown.
func LanguageFromExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return LanguageUnknown
}

// LanguageFromPath classifies a file by the extension of its path.
func LanguageFromPath(path string) string {
	return LanguageFromExtension(filepath.Ext(path))
}

// DisplayName returns the human-readable name of a canonical language identifier.
// Identifiers without an entry are their own display name.
func DisplayName(language string) string {
	if name, ok := displayNames[language]; ok {
		return name
	}
	return language
}

// MatchesLanguage reports whether a file path should be collected for language.
// An empty language accepts every extension that classifies to a known language.
func MatchesLanguage(path, language string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if language == "" {
		return LanguageFromExtension(ext) != LanguageUnknown
	}
	return slices.Contains(languageExtensions[language], ext)
}

// LanguageInfo pairs a canonical identifier with its display name.
type LanguageInfo struct {
	Language string `json:"language"`
	Name     string `json:"name"`
}

// NewLanguageInfo builds a LanguageInfo using the display-name table.
func NewLanguageInfo(language string) LanguageInfo {
	return LanguageInfo{Language: language, Name: DisplayName(language)}
}
