// Go AST-based key extractor for translation wrapper functions.
//
// This scans Go source for calls to configured functions (e.g. T("..."),
// i18n.T("..."), N("...", "...", n)) and reports their literal arguments
// as keys. A context argument, when configured, names the namespace.
package extract

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// GoFunctions are the keyword specs used when none are configured.
var GoFunctions = []string{"T", "i18n.T", "Tr", "N:1,2"}

// GoKeyword defines a function call to scan for and how to extract arguments.
// Follows xgettext --keyword syntax:
//
//	"T"       single argument: T(key)
//	"N:1,2"   positional: N(singular, plural, n), args 1 and 2 are keys
//	"TC:1c,2" with context: arg 1 is the namespace, arg 2 is the key
type GoKeyword struct {
	// FuncName is the function name to match (e.g. "T", "N", "Get").
	// Can be a bare name (matches any package) or "pkg.Func" (matches specific selector).
	FuncName string
	// KeyArg is the 1-based argument index for the key (default 1).
	KeyArg int
	// PluralArg is the 1-based argument index for the plural key (0 = none).
	PluralArg int
	// ContextArg is the 1-based argument index for the namespace (0 = none).
	ContextArg int
}

// ParseGoKeyword parses an xgettext-style keyword spec into a GoKeyword.
// Examples:
//
//	"T"        → GoKeyword{FuncName:"T", KeyArg:1}
//	"N:1,2"    → GoKeyword{FuncName:"N", KeyArg:1, PluralArg:2}
//	"TC:1c,2"  → GoKeyword{FuncName:"TC", ContextArg:1, KeyArg:2}
func ParseGoKeyword(spec string) GoKeyword {
	kw := GoKeyword{KeyArg: 1}

	parts := strings.SplitN(spec, ":", 2)
	kw.FuncName = parts[0]

	if len(parts) < 2 {
		return kw
	}

	// Parse argument positions
	seenKey := false
	argSpecs := strings.Split(parts[1], ",")
	for _, arg := range argSpecs {
		arg = strings.TrimSpace(arg)
		if strings.HasSuffix(arg, "c") {
			n, err := strconv.Atoi(strings.TrimSuffix(arg, "c"))
			if err == nil {
				kw.ContextArg = n
			}
		} else {
			n, err := strconv.Atoi(arg)
			if err == nil {
				if !seenKey {
					kw.KeyArg = n
					seenKey = true
				} else {
					kw.PluralArg = n
				}
			}
		}
	}

	return kw
}

// Go recognizes translation calls in Go sources by walking the AST.
type Go struct {
	kwMap map[string][]GoKeyword
}

// NewGo builds the dialect from keyword specs (defaults to GoFunctions).
func NewGo(specs []string) (*Go, error) {
	if len(specs) == 0 {
		specs = GoFunctions
	}
	kwMap := make(map[string][]GoKeyword)
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		kw := ParseGoKeyword(spec)
		kwMap[kw.FuncName] = append(kwMap[kw.FuncName], kw)
	}
	if len(kwMap) == 0 {
		return nil, fmt.Errorf("go: no keywords configured")
	}
	return &Go{kwMap: kwMap}, nil
}

func (g *Go) Name() string { return "go" }

// Scan parses one Go file. A parse error fails the file; the caller
// reports it and moves on.
func (g *Go) Scan(path string, content []byte) ([]Match, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, content, 0)
	if err != nil {
		return nil, err
	}

	var out []Match

	ast.Inspect(f, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		var funcName string

		switch fn := call.Fun.(type) {
		case *ast.Ident:
			// Direct call: T("...")
			funcName = fn.Name
		case *ast.SelectorExpr:
			// Selector call: pkg.T("...") or obj.T("...")
			funcName = fn.Sel.Name
			if ident, ok := fn.X.(*ast.Ident); ok {
				qualified := ident.Name + "." + fn.Sel.Name
				if _, found := g.kwMap[qualified]; found {
					funcName = qualified
				}
			}
		default:
			return true
		}

		kws, ok := g.kwMap[funcName]
		if !ok {
			return true
		}

		line := fset.Position(call.Lparen).Line
		for _, kw := range kws {
			out = append(out, matchCall(call, kw, line)...)
		}
		return true
	})

	return out, nil
}

// matchCall extracts keys from a single function call matching a keyword.
func matchCall(call *ast.CallExpr, kw GoKeyword, line int) []Match {
	key := stringArgAt(call, kw.KeyArg)
	if key == "" {
		return nil // not a string literal
	}

	ns := DefaultNamespace
	if kw.ContextArg > 0 {
		ctx := stringArgAt(call, kw.ContextArg)
		if ctx == "" {
			return nil
		}
		ns = ctx
	}

	out := []Match{{Namespace: ns, Key: key, Line: line}}
	if kw.PluralArg > 0 {
		if plural := stringArgAt(call, kw.PluralArg); plural != "" {
			out = append(out, Match{Namespace: ns, Key: plural, Line: line})
		}
	}
	return out
}

// stringArgAt extracts the string literal value at 1-based argument position.
// Returns "" if the argument is not a string literal or doesn't exist.
func stringArgAt(call *ast.CallExpr, pos int) string {
	idx := pos - 1
	if idx < 0 || idx >= len(call.Args) {
		return ""
	}
	return stringFromExpr(call.Args[idx])
}

// stringFromExpr extracts a string value from an AST expression.
// Handles string literals and simple concatenation (e.g. "foo" + "bar").
func stringFromExpr(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind == token.STRING {
			s, err := strconv.Unquote(e.Value)
			if err != nil {
				return ""
			}
			return s
		}
	case *ast.ParenExpr:
		return stringFromExpr(e.X)
	case *ast.BinaryExpr:
		if e.Op == token.ADD {
			left := stringFromExpr(e.X)
			right := stringFromExpr(e.Y)
			if left != "" && right != "" {
				return left + right
			}
		}
	}
	return ""
}
