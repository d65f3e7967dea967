package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"
	"strings"
)

var (
	statementPattern = regexp.MustCompile(`(?i)^(select|insert|update|delete|with)\b`)
	markerPattern    = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

type markerSite struct {
	file string
	name string
	line int
}

type linter struct {
	fset       *token.FileSet
	seen       map[string]markerSite
	violations []violation
}

func newLinter() *linter {
	return &linter{fset: token.NewFileSet(), seen: map[string]markerSite{}}
}

// lintFile parses path, or src when non-nil, and records violations.
func (l *linter) lintFile(path string, src any) error {
	file, err := parser.ParseFile(l.fset, path, src, parser.ParseComments)
	if err != nil {
		return err
	}
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil {
				continue
			}
			l.check(path, joinNames(vs.Names), l.fset.Position(bl.Pos()).Line, raw)
		}
		return true
	})
	return nil
}

func (l *linter) check(path, name string, line int, raw string) {
	first := firstLine(raw)
	hasMarker := strings.HasPrefix(first, "--sql")
	if !hasMarker && !statementPattern.MatchString(first) {
		return
	}
	if !markerPattern.MatchString(first) {
		l.violations = append(l.violations, violation{
			file: path, name: name, line: line,
			message: "missing or invalid --sql <uuid> marker",
		})
		return
	}
	if prev, dup := l.seen[first]; dup {
		l.violations = append(l.violations, violation{
			file: path, name: name, line: line,
			message: "marker already used by " + prev.name + " at " + prev.file + ":" + strconv.Itoa(prev.line),
		})
		return
	}
	l.seen[first] = markerSite{file: path, name: name, line: line}
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func joinNames(idents []*ast.Ident) string {
	parts := make([]string, 0, len(idents))
	for _, ident := range idents {
		if ident == nil {
			continue
		}
		parts = append(parts, ident.Name)
	}
	return strings.Join(parts, ",")
}
