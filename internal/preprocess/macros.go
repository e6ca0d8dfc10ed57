package preprocess

import (
	"maps"
	"slices"
	"strings"
)

// Macro is an entry of the macro table. A macro without a value is a flag:
// it is defined, but nothing gets substituted for it.
type Macro struct {
	Value    string
	HasValue bool
}

// Macros maps macro names to their replacement text. A single table is shared by
// every module of one build, so a define in an included module is visible to the
// lines processed after the include.
type Macros struct {
	m map[string]Macro
}

func NewMacros() *Macros {
	return &Macros{m: make(map[string]Macro)}
}

// Define adds name as a flag. An existing value is dropped.
func (t *Macros) Define(name string) {
	t.m[name] = Macro{}
}

// Set defines name with replacement text, overwriting any previous entry
func (t *Macros) Set(name, value string) {
	t.m[name] = Macro{Value: value, HasValue: true}
}

// Undef removes name and reports whether it was defined
func (t *Macros) Undef(name string) bool {
	if _, ok := t.m[name]; !ok {
		return false
	}
	delete(t.m, name)
	return true
}

func (t *Macros) IsDefined(name string) bool {
	_, ok := t.m[name]
	return ok
}

func (t *Macros) Lookup(name string) (Macro, bool) {
	m, ok := t.m[name]
	return m, ok
}

func (t *Macros) Len() int { return len(t.m) }

// Names returns all defined names in sorted order
func (t *Macros) Names() []string {
	return slices.Sorted(maps.Keys(t.m))
}

func (t *Macros) Clone() *Macros {
	return &Macros{m: maps.Clone(t.m)}
}

// Substituter performs the final pass that replaces valued macros in the fully
// assembled source text
type Substituter interface {
	Substitute(text string, macros *Macros) string
}

// ReplaceAll is the default Substituter. Every macro that has a value replaces every
// literal occurrence of its name, once, in sorted name order. There is no notion of
// identifiers: a macro named ONE also rewrites the ONE inside ONE_MORE. Macros are
// applied one after another, so text inserted by one macro is rewritten by any macro
// that sorts after it, but never by one that sorts before it.
type ReplaceAll struct{}

func (ReplaceAll) Substitute(text string, macros *Macros) string {
	for _, name := range macros.Names() {
		m := macros.m[name]
		if !m.HasValue || name == "" {
			continue
		}
		text = strings.ReplaceAll(text, name, m.Value)
	}
	return text
}
