package preprocess

import (
	"strings"
)

// Prefix starts every directive line
const Prefix = "//!"

type directiveKind int

const (
	dirInclude directiveKind = iota + 1
	dirDefine
	dirUndef
	dirIfdef
	dirIfndef
	dirElse
	dirEndif
)

var directiveKeywords = map[string]directiveKind{
	"include": dirInclude,
	"define":  dirDefine,
	"undef":   dirUndef,
	"ifdef":   dirIfdef,
	"ifndef":  dirIfndef,
	"else":    dirElse,
	"endif":   dirEndif,
}

type directive struct {
	kind    directiveKind
	keyword string
	args    []string // whitespace separated tokens after the keyword
	text    string   // everything after the keyword, trimmed
}

// parseDirective recognizes `//!keyword args...` at the very start of a line.
// Lines with the prefix but an unknown keyword are not directives.
func parseDirective(line string) (directive, bool) {
	rest, ok := strings.CutPrefix(line, Prefix)
	if !ok {
		return directive{}, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 || !strings.HasPrefix(rest, fields[0]) {
		return directive{}, false
	}
	kind, ok := directiveKeywords[fields[0]]
	if !ok {
		return directive{}, false
	}
	return directive{
		kind:    kind,
		keyword: fields[0],
		args:    fields[1:],
		text:    strings.TrimSpace(rest[len(fields[0]):]),
	}, true
}

// defineValue returns the replacement text of `define NAME value...`, which is
// the rest of the line after NAME
func (d directive) defineValue() string {
	if len(d.args) == 0 {
		return ""
	}
	return strings.TrimSpace(d.text[len(d.args[0]):])
}

// ParseDefine splits a command line definition, NAME or NAME=VALUE
func ParseDefine(s string) (name, value string, hasValue bool) {
	if i := strings.IndexByte(s, '='); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}
