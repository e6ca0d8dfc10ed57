// Package shader configures and runs one preprocessing job for a root WGSL module.
//
// A Builder collects macros (flags, typed constants, array and struct
// definitions) and turns the root module into final shader text:
//
//	src, err := shader.New("shaders/main.wgsl").
//		Define("SHADOWS").
//		PutConstant("LIGHT_COUNT", wgsl.U32(4)).
//		BuildSource()
package shader

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gogpu/naga"
	nagawgsl "github.com/gogpu/naga/wgsl"

	"github.com/qobs-build/wgslpp/internal/preprocess"
	"github.com/qobs-build/wgslpp/internal/wgsl"
)

var (
	ErrEmptyName     = errors.New("macro name is empty")
	ErrNoDeclaration = errors.New("value has no type declaration")
)

// CompileOptions configures SPIR-V output
type CompileOptions = naga.CompileOptions

// DefaultCompileOptions validates the module and targets SPIR-V 1.3
func DefaultCompileOptions() CompileOptions {
	return naga.DefaultOptions()
}

// Descriptor is what a graphics library needs to create a shader module
type Descriptor struct {
	Label  string
	Source string
}

// Builder is not safe for concurrent use. Independent builders may run in parallel.
type Builder struct {
	root        string
	macros      *preprocess.Macros
	includeDirs []string
	substituter preprocess.Substituter
	allowCycles bool
	err         error
}

func New(root string) *Builder {
	return &Builder{
		root:   root,
		macros: preprocess.NewMacros(),
	}
}

// Root returns the path of the root module
func (b *Builder) Root() string { return b.root }

// Macros exposes the table the next build starts from
func (b *Builder) Macros() *preprocess.Macros { return b.macros }

// Err returns the first error recorded by a configuration call
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) checkName(name string) bool {
	if strings.TrimSpace(name) == "" {
		b.fail(ErrEmptyName)
		return false
	}
	return true
}

// Define adds a flag without a value
func (b *Builder) Define(name string) *Builder {
	if b.checkName(name) {
		b.macros.Define(name)
	}
	return b
}

// Undefine removes a macro, if present
func (b *Builder) Undefine(name string) *Builder {
	b.macros.Undef(name)
	return b
}

// PutRaw defines name with text that is substituted verbatim
func (b *Builder) PutRaw(name, text string) *Builder {
	if b.checkName(name) {
		b.macros.Set(name, text)
	}
	return b
}

// PutConstant defines name with the literal text of v
func (b *Builder) PutConstant(name string, v wgsl.Value) *Builder {
	if v == nil {
		return b.fail(fmt.Errorf("constant %s: value is nil", name))
	}
	return b.PutRaw(name, v.Definition())
}

func (b *Builder) PutConstantMap(constants map[string]wgsl.Value) *Builder {
	for name, v := range constants {
		b.PutConstant(name, v)
	}
	return b
}

// PutArrayDefinition defines name as an array constructor expression ending in
// a semicolon. All values must have the same type.
func (b *Builder) PutArrayDefinition(name string, values []wgsl.Value) *Builder {
	arr, err := wgsl.NewArray(values)
	if err != nil {
		return b.fail(fmt.Errorf("array %s: %w", name, err))
	}
	return b.PutRaw(name, arr.Definition()+";")
}

// PutArray is PutArrayDefinition for a typed slice
func PutArray[T wgsl.Value](b *Builder, name string, values []T) *Builder {
	elems := make([]wgsl.Value, len(values))
	for i, v := range values {
		elems[i] = v
	}
	return b.PutArrayDefinition(name, elems)
}

// PutStructDefinition defines the struct's type name as its declaration
func (b *Builder) PutStructDefinition(v wgsl.Value) *Builder {
	if v == nil {
		return b.fail(fmt.Errorf("struct definition: value is nil"))
	}
	decl := wgsl.Declaration(v)
	if decl == "" {
		return b.fail(fmt.Errorf("%s: %w", v.TypeName(), ErrNoDeclaration))
	}
	return b.PutRaw(v.TypeName(), decl)
}

// PutStruct derives the struct description of v and defines its declaration
func PutStruct[T any](b *Builder, v T) *Builder {
	s, err := wgsl.StructOf(v)
	if err != nil {
		return b.fail(err)
	}
	return b.PutStructDefinition(s)
}

// IncludeDirs adds directories searched for includes not found next to the root
func (b *Builder) IncludeDirs(dirs ...string) *Builder {
	b.includeDirs = append(b.includeDirs, dirs...)
	return b
}

func (b *Builder) WithSubstituter(s preprocess.Substituter) *Builder {
	b.substituter = s
	return b
}

// AllowCycles turns off include cycle detection, leaving only the depth limit
func (b *Builder) AllowCycles(allow bool) *Builder {
	b.allowCycles = allow
	return b
}

// Fingerprint hashes every input of a build except the module files themselves.
// Two builders with the same fingerprint produce the same output from the same
// files.
func (b *Builder) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "root %s\n", b.root)
	for _, name := range b.macros.Names() {
		m, _ := b.macros.Lookup(name)
		fmt.Fprintf(h, "macro %q %t %q\n", name, m.HasValue, m.Value)
	}
	for _, dir := range b.includeDirs {
		fmt.Fprintf(h, "include %s\n", dir)
	}
	fmt.Fprintf(h, "cycles %t\n", b.allowCycles)
	if b.substituter != nil {
		fmt.Fprintf(h, "substituter %T\n", b.substituter)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Label is the root file name without its extension
func (b *Builder) Label() string {
	base := filepath.Base(b.root)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BuildOutput runs the preprocessor on a copy of the macro table, so the builder
// can be changed and built again.
func (b *Builder) BuildOutput() (*preprocess.Output, error) {
	if b.err != nil {
		return nil, b.err
	}
	p := preprocess.NewProcessor(b.macros.Clone())
	p.IncludeDirs = b.includeDirs
	p.Substituter = b.substituter
	p.AllowCycles = b.allowCycles
	return p.Process(b.root)
}

func (b *Builder) BuildSource() (string, error) {
	out, err := b.BuildOutput()
	if err != nil {
		return "", err
	}
	return out.Source, nil
}

func (b *Builder) Build() (Descriptor, error) {
	src, err := b.BuildSource()
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Label: b.Label(), Source: src}, nil
}

// Compile builds the source and compiles it to SPIR-V
func (b *Builder) Compile(opts CompileOptions) ([]byte, error) {
	src, err := b.BuildSource()
	if err != nil {
		return nil, err
	}
	return CompileSource(src, opts)
}

// CompileSource compiles already processed text to SPIR-V
func CompileSource(src string, opts CompileOptions) ([]byte, error) {
	spv, err := naga.CompileWithOptions(src, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	return spv, nil
}

// Diagnostic renders a compile error with the offending source line when the
// compiler reported a location
func Diagnostic(err error) string {
	var list nagawgsl.SourceErrors
	if errors.As(err, &list) && len(list) > 0 {
		return list.FormatAll()
	}
	var se *nagawgsl.SourceError
	if errors.As(err, &se) {
		return se.FormatWithContext()
	}
	return err.Error()
}
