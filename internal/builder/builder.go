package builder

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/qobs-build/wgslpp/internal/builder/gen"
	"github.com/qobs-build/wgslpp/internal/msg"
	"github.com/qobs-build/wgslpp/internal/shader"
)

var (
	errNoShaders        = errors.New("no shaders matched target.shaders")
	errUnknownGenerator = errors.New("unknown generator")
)

// Package represents a single component (root package or dependency) in the build graph
type Package struct {
	Name   string
	Path   string
	Config *Config
	IsRoot bool
}

// includeDirs returns the directories includes of other packages are resolved
// against: the package root and its own include_dirs
func (p *Package) includeDirs() []string {
	dirs := []string{p.Path}
	for _, dir := range p.Config.Target.IncludeDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(p.Path, dir)
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

type Builder struct {
	cfg     *Config
	basedir string
	env     ConfigEnv

	// Generator overrides the generator created by Build, used by tests
	Generator gen.Generator
}

func NewBuilderInDirectory(dir string) (*Builder, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	env := NewConfigEnv(dir)
	cfg, err := ParseConfigFromFile(filepath.Join(dir, ConfigFilename), env)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, basedir: dir, env: env}, nil
}

func (b *Builder) Config() *Config { return b.cfg }

// OutDir is where generated files go for a profile
func (b *Builder) OutDir(profile string) string {
	if b.cfg.Target.OutDir != "" {
		if filepath.IsAbs(b.cfg.Target.OutDir) {
			return b.cfg.Target.OutDir
		}
		return filepath.Join(b.basedir, b.cfg.Target.OutDir)
	}
	return filepath.Join(b.basedir, "build", profile)
}

// resolveDependencies fetches every dependency of the root package, and theirs,
// breadth first. Dependencies without a config file are plain shader directories.
func (b *Builder) resolveDependencies(depsDir string) ([]*Package, error) {
	var packages []*Package
	seen := make(map[string]bool)

	type pending struct {
		name, spec, from string
	}
	var queue []pending
	for _, name := range slices.Sorted(maps.Keys(b.cfg.Dependencies)) {
		queue = append(queue, pending{name, b.cfg.Dependencies[name], b.basedir})
	}

	for i := 0; i < len(queue); i++ {
		dep := queue[i]
		if seen[dep.name] {
			continue
		}
		seen[dep.name] = true

		depPath, err := fetchDependency(dep.spec, dep.from, filepath.Join(depsDir, dep.name))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch dependency %q: %w", dep.name, err)
		}

		depConfig := &Config{Package: PackageSection{Name: dep.name}}
		configPath := filepath.Join(depPath, ConfigFilename)
		if _, err := os.Stat(configPath); err == nil {
			depConfig, err = ParseConfigFromFile(configPath, NewConfigEnv(depPath))
			if err != nil {
				return nil, fmt.Errorf("failed to parse config for dependency %q: %w", dep.name, err)
			}
			if depConfig.Package.Name != dep.name {
				msg.Warn("dependency %q has a mismatched package name: %q", dep.name, depConfig.Package.Name)
			}
		}

		packages = append(packages, &Package{
			Name:   dep.name,
			Path:   depPath,
			Config: depConfig,
		})

		for _, name := range slices.Sorted(maps.Keys(depConfig.Dependencies)) {
			queue = append(queue, pending{name, depConfig.Dependencies[name], depPath})
		}
	}

	return packages, nil
}

// collectFiles expands glob patterns relative to the package directory into absolute file paths
func (b *Builder) collectFiles(pkg *Package, patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	fsys := os.DirFS(pkg.Path)

	for _, pat := range patterns {
		if filepath.IsAbs(pat) {
			pat = filepath.Clean(pat)
			if !seen[pat] {
				seen[pat] = true
				files = append(files, pat)
			}
			continue
		}
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pat), doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			absPath, err := filepath.Abs(filepath.Join(pkg.Path, match))
			if err != nil {
				return nil, fmt.Errorf("while globbing directory %s: %w", match, err)
			}
			absPath = filepath.Clean(absPath)
			if !seen[absPath] {
				seen[absPath] = true
				files = append(files, absPath)
			}
		}
	}

	slices.Sort(files)
	return files, nil
}

// targetName is the shader path relative to the package, slash separated and
// without extension
func targetName(basedir, file string) string {
	rel, err := filepath.Rel(basedir, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
		msg.Warn("shader %s is outside of base directory %s", file, basedir)
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, path.Ext(rel))
}

func createGenerator(generator string) (gen.Generator, error) {
	g := gen.New(generator)
	if g == nil {
		return nil, fmt.Errorf("%w %q, known generators: %s", errUnknownGenerator, generator, strings.Join(gen.Generators, ", "))
	}
	return g, nil
}

// Shaders configures one shader builder per root module of the package for the
// given profile, in file order
func (b *Builder) Shaders(profile string, includeDirs []string) ([]*shader.Builder, error) {
	defines, constants, err := b.cfg.Macros(profile)
	if err != nil {
		return nil, err
	}

	root := &Package{Name: b.cfg.Package.Name, Path: b.basedir, Config: b.cfg, IsRoot: true}
	files, err := b.collectFiles(root, b.cfg.Target.Shaders)
	if err != nil {
		return nil, fmt.Errorf("failed to collect shaders for %s: %w", root.Name, err)
	}
	if len(files) == 0 {
		return nil, errNoShaders
	}

	dirs := append(root.includeDirs(), includeDirs...)

	shaders := make([]*shader.Builder, 0, len(files))
	for _, file := range files {
		sb := shader.New(file).
			IncludeDirs(dirs...).
			AllowCycles(b.cfg.Target.AllowCycles)
		for _, name := range slices.Sorted(maps.Keys(defines)) {
			if v := defines[name]; v != "" {
				sb.PutRaw(name, v)
			} else {
				sb.Define(name)
			}
		}
		sb.PutConstantMap(constants)
		if err := sb.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		shaders = append(shaders, sb)
	}
	return shaders, nil
}

// Build resolves dependencies, runs the build script and hands every shader to the generator
func (b *Builder) Build(profile, generator string) error {
	depsDir := filepath.Join(b.basedir, "build", "_deps")

	g := b.Generator
	if g == nil {
		var err error
		if g, err = createGenerator(generator); err != nil {
			return err
		}
	}

	deps, err := b.resolveDependencies(depsDir)
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}

	var includeDirs []string
	for _, dep := range deps {
		if err := dep.Config.RunBuildScript(NewConfigEnv(dep.Path)); err != nil {
			return err
		}
		includeDirs = append(includeDirs, dep.includeDirs()...)
	}
	if err := b.cfg.RunBuildScript(b.env); err != nil {
		return err
	}

	shaders, err := b.Shaders(profile, includeDirs)
	if err != nil {
		return err
	}
	for _, sb := range shaders {
		g.AddTarget(targetName(b.basedir, sb.Root()), sb)
	}

	msg.Info("building %d shader(s) of %s (%s)", len(shaders), b.cfg.Package.Name, profile)
	return g.Invoke(b.OutDir(profile))
}
