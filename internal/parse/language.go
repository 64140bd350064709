package parse

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/swift"
	typescript "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/chris-regnier/mallet/internal/syntax"
)

// Language describes how one tree-sitter grammar maps onto the syntax tree.
type Language struct {
	Name    string
	Grammar *sitter.Language

	// LineComment is the marker that starts a line comment.
	LineComment string
	// CommentTypes are grammar nodes folded into trivia.
	CommentTypes syntax.TypeSet
	// AtomicTypes are grammar nodes kept as single tokens even though the
	// grammar gives them children, such as string literals.
	AtomicTypes syntax.TypeSet
}

var (
	byName    map[string]*Language
	extToLang map[string]*Language
)

func init() {
	langs := []*Language{
		{
			Name:         "go",
			Grammar:      golang.GetLanguage(),
			LineComment:  "//",
			CommentTypes: syntax.NewTypeSet("comment"),
			AtomicTypes:  syntax.NewTypeSet("interpreted_string_literal", "raw_string_literal", "rune_literal"),
		},
		{
			Name:         "python",
			Grammar:      python.GetLanguage(),
			LineComment:  "#",
			CommentTypes: syntax.NewTypeSet("comment"),
			AtomicTypes:  syntax.NewTypeSet("string"),
		},
		{
			Name:         "javascript",
			Grammar:      javascript.GetLanguage(),
			LineComment:  "//",
			CommentTypes: syntax.NewTypeSet("comment"),
			AtomicTypes:  syntax.NewTypeSet("string", "template_string", "regex"),
		},
		{
			Name:         "typescript",
			Grammar:      typescript.GetLanguage(),
			LineComment:  "//",
			CommentTypes: syntax.NewTypeSet("comment"),
			AtomicTypes:  syntax.NewTypeSet("string", "template_string", "regex"),
		},
		{
			Name:         "java",
			Grammar:      java.GetLanguage(),
			LineComment:  "//",
			CommentTypes: syntax.NewTypeSet("line_comment", "block_comment"),
			AtomicTypes:  syntax.NewTypeSet("string_literal", "character_literal"),
		},
		{
			Name:         "c",
			Grammar:      c.GetLanguage(),
			LineComment:  "//",
			CommentTypes: syntax.NewTypeSet("comment"),
			AtomicTypes:  syntax.NewTypeSet("string_literal", "char_literal", "system_lib_string"),
		},
		{
			Name:         "rust",
			Grammar:      rust.GetLanguage(),
			LineComment:  "//",
			CommentTypes: syntax.NewTypeSet("line_comment", "block_comment"),
			AtomicTypes:  syntax.NewTypeSet("string_literal", "raw_string_literal", "char_literal"),
		},
		{
			Name:         "swift",
			Grammar:      swift.GetLanguage(),
			LineComment:  "//",
			CommentTypes: syntax.NewTypeSet("comment", "multiline_comment"),
			AtomicTypes:  syntax.NewTypeSet("line_string_literal", "multi_line_string_literal", "raw_string_literal"),
		},
	}

	byName = make(map[string]*Language, len(langs))
	for _, l := range langs {
		byName[l.Name] = l
	}
	extToLang = map[string]*Language{
		".go":    byName["go"],
		".py":    byName["python"],
		".js":    byName["javascript"],
		".jsx":   byName["javascript"],
		".mjs":   byName["javascript"],
		".ts":    byName["typescript"],
		".tsx":   byName["typescript"],
		".java":  byName["java"],
		".c":     byName["c"],
		".h":     byName["c"],
		".rs":    byName["rust"],
		".swift": byName["swift"],
	}
}

// Detect returns the language for a file path and whether its extension
// was recognized.
func Detect(path string) (*Language, bool) {
	l, ok := extToLang[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// Lookup returns a language by name.
func Lookup(name string) (*Language, bool) {
	l, ok := byName[name]
	return l, ok
}

// Languages returns the names of all supported languages in sorted order.
func Languages() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
