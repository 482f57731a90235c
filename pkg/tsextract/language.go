package tsextract

import (
	"path/filepath"
	"strings"
)

// Language represents a supported programming language for parsing.
type Language int

const (
	// LanguageTypeScript represents TypeScript (.ts, .tsx files)
	LanguageTypeScript Language = iota
	// LanguageJavaScript represents JavaScript (.js, .jsx files)
	LanguageJavaScript
	// LanguageUnknown represents an unsupported language
	LanguageUnknown
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DetectLanguage detects the programming language from a file path.
// Returns LanguageUnknown if the file extension is not recognized.
func DetectLanguage(filePath string) Language {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript
	case ".tsx":
		return LanguageTypeScript // TSX is handled separately via IsTSXFile
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// IsTSXFile checks if a file path represents a TSX file.
// TSX files use the TypeScript grammar with JSX support enabled.
func IsTSXFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return ext == ".tsx"
}

// SupportedExtensions lists the file extensions this backend recognizes,
// for callers building help text or config validation; extract.go's
// Supported(path) is the check ExtractFile itself uses.
func SupportedExtensions() []string {
	return []string{".ts", ".mts", ".cts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
}
