// Command sqllint checks that every inline SQL constant opens with a unique
// "--sql <uuid>" marker so SQLRunner can tag its query logs.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const defaultTarget = "internal/sqlinline"

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{defaultTarget}
	}

	l := newLinter()
	for _, target := range targets {
		if err := l.lintPath(target); err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
	}
	if report(os.Stderr, l.violations) {
		os.Exit(1)
	}
}

func (l *linter) lintPath(target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if filepath.Ext(target) != ".go" {
			return nil
		}
		return l.lintFile(target, nil)
	}
	return filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != target && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		return l.lintFile(path, nil)
	})
}

func report(w io.Writer, violations []violation) bool {
	if len(violations) == 0 {
		return false
	}
	fmt.Fprintf(w, "sqllint: %d problem(s)\n", len(violations))
	for _, v := range violations {
		fmt.Fprintf(w, "  %s:%d %s (%s)\n", v.file, v.line, v.message, v.name)
	}
	return true
}
