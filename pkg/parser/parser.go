// Package parser wraps tree-sitter parsing for the TypeScript/JavaScript
// grammar family and provides AST traversal helpers.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language represents a supported grammar variant.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangJSX        Language = "jsx"
	LangUnknown    Language = "unknown"
)

// Registry maps file extensions to tree-sitter grammars. Grammars are
// expensive to initialize and safe for concurrent reads, so a single
// Registry is constructed at startup and shared. It is never mutated
// after NewRegistry returns.
type Registry struct {
	grammars map[Language]*sitter.Language
	byExt    map[string]Language
}

// NewRegistry creates a registry covering the four grammar variants.
// JSX files use the plain JavaScript grammar, which includes JSX
// productions; TSX needs the dedicated tsx grammar because type
// annotations and JSX are ambiguous otherwise.
func NewRegistry() *Registry {
	return &Registry{
		grammars: map[Language]*sitter.Language{
			LangTypeScript: typescript.GetLanguage(),
			LangTSX:        tsx.GetLanguage(),
			LangJavaScript: javascript.GetLanguage(),
			LangJSX:        javascript.GetLanguage(),
		},
		byExt: map[string]Language{
			".ts":  LangTypeScript,
			".tsx": LangTSX,
			".js":  LangJavaScript,
			".mjs": LangJavaScript,
			".cjs": LangJavaScript,
			".jsx": LangJSX,
		},
	}
}

// Detect determines the grammar variant from a file path.
func (r *Registry) Detect(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := r.byExt[ext]; ok {
		return lang
	}
	return LangUnknown
}

// Grammar returns the tree-sitter grammar for a language.
func (r *Registry) Grammar(lang Language) (*sitter.Language, bool) {
	g, ok := r.grammars[lang]
	return g, ok
}

// Supported reports whether the registry can parse the given path.
func (r *Registry) Supported(path string) bool {
	return r.Detect(path) != LangUnknown
}

// Parser wraps a tree-sitter parser bound to a Registry. A Parser is
// not safe for concurrent use; create one per goroutine.
type Parser struct {
	registry *Registry
	parser   *sitter.Parser
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// NewParser creates a parser backed by the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{
		registry: registry,
		parser:   sitter.NewParser(),
	}
}

// ParseFile parses a source file and returns the AST.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	lang := p.registry.Detect(path)
	if lang == LangUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}

	return p.Parse(source, lang, path)
}

// Parse parses source code with a specified language.
func (p *Parser) Parse(source []byte, lang Language, path string) (*ParseResult, error) {
	grammar, ok := p.registry.Grammar(lang)
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	p.parser.SetLanguage(grammar)
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	return &ParseResult{
		Tree:     tree,
		Language: lang,
		Source:   source,
		Path:     path,
	}, nil
}

// Registry returns the registry the parser was built with.
func (p *Parser) Registry() *Registry {
	return p.registry
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// NodeVisitor is a function that visits AST nodes.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// TypedNodeVisitor visits AST nodes with pre-cached node type to avoid CGO overhead.
type TypedNodeVisitor func(node *sitter.Node, nodeType string, source []byte) bool

// Walk traverses the AST calling visitor for each node.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}

	if !visitor(node, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// WalkTyped traverses the AST with cached node types to reduce CGO overhead.
// Use this when you need to check node types frequently.
func WalkTyped(node *sitter.Node, source []byte, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}

	nodeType := node.Type() // Cache the type once per node
	if !visitor(node, nodeType, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		WalkTyped(node.Child(i), source, visitor)
	}
}

// FindNodes returns all nodes matching a predicate.
func FindNodes(root *sitter.Node, source []byte, predicate func(*sitter.Node) bool) []*sitter.Node {
	var results []*sitter.Node
	Walk(root, source, func(node *sitter.Node, source []byte) bool {
		if predicate(node) {
			results = append(results, node)
		}
		return true
	})
	return results
}

// FindNodesByType returns all nodes of a specific type.
func FindNodesByType(root *sitter.Node, source []byte, nodeType string) []*sitter.Node {
	return FindNodes(root, source, func(n *sitter.Node) bool {
		return n.Type() == nodeType
	})
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
