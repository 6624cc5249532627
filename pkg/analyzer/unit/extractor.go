package unit

import (
	"path/filepath"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dooosp/ghostcode-auditor/pkg/parser"
)

var hookNamePattern = regexp.MustCompile(`^use[A-Z]`)

// Extractor turns source files into measured Units. It is not safe for
// concurrent use; create one per goroutine.
type Extractor struct {
	parser    *parser.Parser
	ownParser bool
}

// New creates an extractor with its own parser bound to the registry.
func New(registry *parser.Registry) *Extractor {
	return &Extractor{parser: parser.NewParser(registry), ownParser: true}
}

// NewWithParser creates an extractor sharing an existing parser. The
// caller retains ownership of the parser.
func NewWithParser(p *parser.Parser) *Extractor {
	return &Extractor{parser: p}
}

// Close releases the extractor's parser if it owns one.
func (e *Extractor) Close() {
	if e.ownParser {
		e.parser.Close()
	}
}

// ExtractFile parses one file and returns its units. relPath is
// relative to repoRoot and is recorded verbatim in each unit.
// Unreadable or unparseable files yield no units rather than an error;
// a broken file in a large repo should not abort the scan.
func (e *Extractor) ExtractFile(repoRoot, relPath string) []Unit {
	result, err := e.parser.ParseFile(filepath.Join(repoRoot, relPath))
	if err != nil {
		return nil
	}
	defer result.Tree.Close()
	return e.extract(relPath, result)
}

// ExtractSource extracts units from in-memory source. The grammar is
// chosen from relPath's extension.
func (e *Extractor) ExtractSource(relPath string, source []byte) []Unit {
	lang := e.parser.Registry().Detect(relPath)
	if lang == parser.LangUnknown {
		return nil
	}
	result, err := e.parser.Parse(source, lang, relPath)
	if err != nil {
		return nil
	}
	defer result.Tree.Close()
	return e.extract(relPath, result)
}

func (e *Extractor) extract(relPath string, result *parser.ParseResult) []Unit {
	root := result.Tree.RootNode()
	source := result.Source

	var units []Unit
	for i := range int(root.NamedChildCount()) {
		child := root.NamedChild(i)
		fn, name := declarationFunction(child, source)
		if fn == nil || name == "" {
			continue
		}
		units = append(units, measure(relPath, name, fn, source))
	}
	return units
}

// declarationFunction resolves a top-level declaration to its function
// node and name. Handles plain declarations, exported declarations, and
// const/let/var bindings whose value is an arrow or function expression.
func declarationFunction(node *sitter.Node, source []byte) (*sitter.Node, string) {
	switch node.Type() {
	case "function_declaration":
		return node, parser.GetNodeText(node.ChildByFieldName("name"), source)

	case "export_statement":
		decl := node.ChildByFieldName("declaration")
		if decl == nil {
			for i := range int(node.NamedChildCount()) {
				c := node.NamedChild(i)
				if t := c.Type(); t == "function_declaration" || t == "lexical_declaration" || t == "variable_declaration" {
					decl = c
					break
				}
			}
		}
		if decl == nil {
			return nil, ""
		}
		return declarationFunction(decl, source)

	case "lexical_declaration", "variable_declaration":
		for i := range int(node.NamedChildCount()) {
			declarator := node.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			value := declarator.ChildByFieldName("value")
			if value == nil {
				continue
			}
			if isFunctionValue(value.Type()) {
				return value, parser.GetNodeText(declarator.ChildByFieldName("name"), source)
			}
		}
	}
	return nil, ""
}

// isFunctionValue reports whether a node type is a function-valued
// expression. The grammar family has renamed function expressions over
// time, so both spellings are accepted.
func isFunctionValue(nodeType string) bool {
	switch nodeType {
	case "arrow_function", "function", "function_expression", "generator_function":
		return true
	}
	return false
}

// measure computes every structural metric for one function node.
func measure(relPath, name string, fn *sitter.Node, source []byte) Unit {
	span := Span{Start: fn.StartPoint().Row + 1, End: fn.EndPoint().Row + 1}
	body := fn.ChildByFieldName("body")
	if body == nil {
		body = fn
	}

	u := Unit{
		ID:                  makeID(relPath, name, span),
		FilePath:            relPath,
		Name:                name,
		Span:                span,
		LOC:                 span.Lines(),
		NestingDepth:        maxNesting(fn, 0),
		BranchCount:         countBranches(fn, source),
		EarlyReturnCount:    countEarlyReturns(fn),
		TryCatchCount:       countNodeType(fn, "try_statement"),
		HookCalls:           collectHookCalls(fn, source),
		HasCleanup:          hasEffectCleanup(fn, source),
		RenderSideEffects:   countSideEffectCalls(body, source),
		BooleanComplexity:   countBooleanOperators(fn, source),
		CallbackDepth:       maxCallbackDepth(fn, 0),
		IdentifierAmbiguity: identifierAmbiguity(fn, source),
		Source:              parser.GetNodeText(fn, source),
	}
	u.Kind = classify(name, body)
	return u
}

// classify picks the unit kind. Hook naming wins over JSX presence so
// a hook that builds element trees still reads as a hook.
func classify(name string, body *sitter.Node) Kind {
	if hookNamePattern.MatchString(name) {
		return KindHook
	}
	if containsJSX(body) {
		return KindComponent
	}
	return KindFunction
}
