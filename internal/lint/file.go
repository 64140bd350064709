package lint

import (
	"github.com/chris-regnier/mallet/internal/position"
	"github.com/chris-regnier/mallet/internal/region"
	"github.com/chris-regnier/mallet/internal/syntax"
)

// File is one parsed source file with the lookups rules need. It is
// immutable after NewFile returns.
type File struct {
	Path     string
	Language string
	Tree     *syntax.Tree
	Lines    *position.Converter
	Regions  *region.Set
}

// NewFile indexes tree for position conversion and resolves its disabled
// regions.
func NewFile(path string, tree *syntax.Tree) *File {
	lines := position.NewConverter(tree.Source())
	return &File{
		Path:     path,
		Language: tree.Language,
		Tree:     tree,
		Lines:    lines,
		Regions:  region.Resolve(tree, lines),
	}
}

// Source returns the text of the file.
func (f *File) Source() string {
	return f.Tree.Source()
}
