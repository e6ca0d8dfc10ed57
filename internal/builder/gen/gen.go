package gen

import (
	"fmt"

	"github.com/qobs-build/wgslpp/internal/shader"
)

const (
	GeneratorWGSL  = "wgsl"
	GeneratorSPIRV = "spirv"
)

// Generators lists every accepted generator name
var Generators = []string{GeneratorWGSL, GeneratorSPIRV}

type Generator interface {
	// AddTarget registers a root shader; name is its path relative to the
	// package without extension, e.g. "post/blur"
	AddTarget(name string, b *shader.Builder)
	// BuildFile is the name of the state file kept in the output directory
	BuildFile() string
	// Invoke builds every target that changed into outDir
	Invoke(outDir string) error
}

// New returns the generator called name, or nil if there is none
func New(name string) Generator {
	switch name {
	case GeneratorWGSL:
		return NewWGSLGen()
	case GeneratorSPIRV:
		return NewSPIRVGen(shader.DefaultCompileOptions())
	default:
		return nil
	}
}

// WGSLGen writes the processed shader text to <name>.wgsl
type WGSLGen struct {
	*Pipeline
}

func NewWGSLGen() *WGSLGen {
	return &WGSLGen{Pipeline: NewPipeline(GeneratorWGSL, ".wgsl", func(src string) ([]byte, error) {
		return []byte(src), nil
	})}
}

// SPIRVGen compiles every target and writes the module to <name>.spv
type SPIRVGen struct {
	*Pipeline
	Options shader.CompileOptions
}

func NewSPIRVGen(opts shader.CompileOptions) *SPIRVGen {
	g := &SPIRVGen{Options: opts}
	g.Pipeline = NewPipeline(GeneratorSPIRV, ".spv", func(src string) ([]byte, error) {
		return shader.CompileSource(src, g.Options)
	})
	g.Salt = func() string { return fmt.Sprintf("%+v", g.Options) }
	return g
}
