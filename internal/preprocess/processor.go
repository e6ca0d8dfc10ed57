// Package preprocess implements the `//!` directive language: file inclusion,
// ifdef/ifndef blocks and text macros over WGSL source.
//
// A module is scanned line by line. Directive lines start with `//!` followed by
// one of the keywords below; every other line is copied to the output when it is
// inside relevant conditional blocks only.
//
//	//!include a.wgsl b.wgsl   inline the processed text of each module
//	//!define NAME             define a flag, or emit NAME if already defined
//	//!define NAME text...     define NAME with replacement text
//	//!undef NAME              remove NAME, which must be defined
//	//!ifdef NAME              keep the block if NAME is defined
//	//!ifndef NAME             keep the block if NAME is not defined
//	//!else                    invert the innermost block
//	//!endif                   close the innermost block
//
// After the whole include tree is assembled, every macro with a value is
// substituted into the text once.
package preprocess

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxDepth bounds include nesting
const DefaultMaxDepth = 64

// Output is the result of processing a root module
type Output struct {
	// Source is the final text with includes inlined and macros substituted
	Source string
	// Modules lists every module that was read, in first-read order
	Modules []string
	// Defined lists names that `define` directives added to the macro table
	Defined []string
}

type Processor struct {
	Macros *Macros
	// IncludeDirs are searched, in order, for includes not found next to the root module
	IncludeDirs []string
	// Substituter runs the final macro pass, ReplaceAll if nil
	Substituter Substituter
	// AllowCycles disables include cycle detection; recursion is then only
	// stopped by MaxDepth
	AllowCycles bool
	// MaxDepth limits include nesting, 0 means unlimited
	MaxDepth int

	baseDir string
	active  map[string]bool
	stack   []string
	seen    map[string]bool
	out     Output
}

func NewProcessor(macros *Macros) *Processor {
	if macros == nil {
		macros = NewMacros()
	}
	return &Processor{
		Macros:   macros,
		MaxDepth: DefaultMaxDepth,
	}
}

// Process runs the root module and its include tree. The macro table is updated in
// place. Any error aborts the whole run and no partial output is returned.
func (p *Processor) Process(root string) (*Output, error) {
	if p.Macros == nil {
		p.Macros = NewMacros()
	}
	p.baseDir = filepath.Dir(root)
	p.active = make(map[string]bool)
	p.stack = nil
	p.seen = make(map[string]bool)
	p.out = Output{}

	text, err := p.processModule(root, "", 0)
	if err != nil {
		return nil, err
	}

	sub := p.Substituter
	if sub == nil {
		sub = ReplaceAll{}
	}
	out := p.out
	out.Source = sub.Substitute(text, p.Macros)
	return &out, nil
}

// processModule returns the text of one module with its includes inlined and
// irrelevant blocks removed. from/fromLine locate the include directive, they are
// empty for the root module.
func (p *Processor) processModule(path, from string, fromLine int) (string, error) {
	leave, err := p.enter(path, from, fromLine)
	if err != nil {
		return "", err
	}
	defer leave()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e := &Error{Path: path, Err: ErrFileNotFound, cause: err}
			if from != "" {
				e.Detail = fmt.Sprintf("included from %s:%d", from, fromLine)
			}
			return "", e
		}
		return "", fmt.Errorf("failed to read module %s: %w", path, err)
	}
	p.noteModule(path)

	var (
		out  strings.Builder
		cond condStack
		n    int
	)
	for line := range strings.Lines(string(data)) {
		n++
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		d, isDirective := parseDirective(line)

		// block structure and undef are handled regardless of relevance
		if isDirective {
			switch d.kind {
			case dirEndif:
				if err := cond.pop(); err != nil {
					return "", newError(path, n, err, "")
				}
				continue
			case dirElse:
				if err := cond.flip(); err != nil {
					return "", newError(path, n, err, "")
				}
				continue
			case dirUndef:
				if len(d.args) != 1 {
					return "", newError(path, n, ErrMalformedDirective, "undef takes exactly one name, got %d", len(d.args))
				}
				if !p.Macros.Undef(d.args[0]) {
					return "", newError(path, n, ErrUndefinedSymbol, "%s", d.args[0])
				}
				continue
			}
		}

		if !cond.relevant(p.Macros) {
			if isDirective && (d.kind == dirIfdef || d.kind == dirIfndef) {
				if err := pushGuard(&cond, d, path, n); err != nil {
					return "", err
				}
			}
			continue
		}

		if !isDirective {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}

		switch d.kind {
		case dirIfdef, dirIfndef:
			if err := pushGuard(&cond, d, path, n); err != nil {
				return "", err
			}

		case dirInclude:
			if len(d.args) == 0 {
				return "", newError(path, n, ErrMalformedDirective, "include needs at least one path")
			}
			for _, inc := range d.args {
				text, err := p.include(inc, path, n)
				if err != nil {
					return "", err
				}
				out.WriteString(text)
			}

		case dirDefine:
			if len(d.args) == 0 {
				return "", newError(path, n, ErrMalformedDirective, "define needs a name")
			}
			name := d.args[0]
			if value := d.defineValue(); value != "" {
				if !p.Macros.IsDefined(name) {
					p.out.Defined = append(p.out.Defined, name)
				}
				p.Macros.Set(name, value)
			} else if !p.Macros.IsDefined(name) {
				p.out.Defined = append(p.out.Defined, name)
				p.Macros.Define(name)
			} else {
				// placeholder, replaced by the macro's value in the final pass
				out.WriteString(name)
				out.WriteByte('\n')
			}
		}
	}

	if cond.depth() != 0 {
		return "", newError(path, cond.unclosedLine(), ErrUnterminatedConditional, "%d block(s) still open at end of file", cond.depth())
	}
	return out.String(), nil
}

func pushGuard(cond *condStack, d directive, path string, line int) error {
	if len(d.args) != 1 {
		return newError(path, line, ErrMalformedDirective, "%s takes exactly one name, got %d", d.keyword, len(d.args))
	}
	cond.push(d.args[0], d.kind == dirIfdef, line)
	return nil
}

func (p *Processor) noteModule(path string) {
	key := filepath.Clean(path)
	if p.seen[key] {
		return
	}
	p.seen[key] = true
	p.out.Modules = append(p.out.Modules, key)
}
