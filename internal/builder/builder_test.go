package builder

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qobs-build/wgslpp/internal/builder/gen"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newTestProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app/" + ConfigFilename: `
[package]
name = "demo"
build = 'Exists("shaders/main.wgsl")'

[target]
shaders = ["shaders/**/*.wgsl"]
include_dirs = ["include"]

[target.constants]
LIGHTS = "4u"

[dependencies]
noise = "../noiselib"
`,
		"app/include/common.wgsl": "const N = LIGHTS;\n",
		"app/shaders/main.wgsl": "//!include common.wgsl\n" +
			"//!include noise.wgsl\n" +
			"//!ifdef DEBUG\n" +
			"const DBG = true;\n" +
			"//!endif\n",
		"app/shaders/post/blur.wgsl": "fn blur() {}\n",

		"noiselib/" + ConfigFilename: "[package]\nname = \"noise\"\n\n[target]\ninclude_dirs = [\"src\"]\n",
		"noiselib/src/noise.wgsl":    "fn noise() -> f32 { return 0.5; }\n",
	})
	return filepath.Join(root, "app")
}

func quietGenerator() gen.Generator {
	g := gen.NewWGSLGen()
	g.W = io.Discard
	return g
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuildProject(t *testing.T) {
	dir := newTestProject(t)

	b, err := NewBuilderInDirectory(dir)
	require.NoError(t, err)
	b.Generator = quietGenerator()
	require.NoError(t, b.Build("debug", gen.GeneratorWGSL))

	out := b.OutDir("debug")
	require.Equal(t, filepath.Join(dir, "build", "debug"), out)
	require.Equal(t,
		"const N = 4u;\nfn noise() -> f32 { return 0.5; }\nconst DBG = true;\n",
		readOutput(t, filepath.Join(out, "shaders", "main.wgsl")))
	require.Equal(t, "fn blur() {}\n", readOutput(t, filepath.Join(out, "shaders", "post", "blur.wgsl")))

	b, err = NewBuilderInDirectory(dir)
	require.NoError(t, err)
	b.Generator = quietGenerator()
	require.NoError(t, b.Build("release", gen.GeneratorWGSL))
	require.Equal(t,
		"const N = 4u;\nfn noise() -> f32 { return 0.5; }\n",
		readOutput(t, filepath.Join(b.OutDir("release"), "shaders", "main.wgsl")))
}

func TestBuildErrors(t *testing.T) {
	dir := newTestProject(t)
	b, err := NewBuilderInDirectory(dir)
	require.NoError(t, err)

	require.ErrorIs(t, b.Build("debug", "ninja"), errUnknownGenerator)

	b.Generator = quietGenerator()
	require.ErrorContains(t, b.Build("profiling", gen.GeneratorWGSL), "unknown profile")

	b.Config().Target.Shaders = []string{"nothing/*.wgsl"}
	require.ErrorIs(t, b.Build("debug", gen.GeneratorWGSL), errNoShaders)

	b.Config().Package.Build = `Exists("missing.wgsl")`
	require.ErrorContains(t, b.Build("debug", gen.GeneratorWGSL), "returned false")

	_, err = NewBuilderInDirectory(t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestShaders(t *testing.T) {
	dir := newTestProject(t)
	b, err := NewBuilderInDirectory(dir)
	require.NoError(t, err)

	shaders, err := b.Shaders("debug", nil)
	require.NoError(t, err)
	require.Len(t, shaders, 2)
	require.Equal(t, "main", shaders[0].Label())
	require.Equal(t, "blur", shaders[1].Label())
	require.True(t, shaders[0].Macros().IsDefined("DEBUG"))

	m, ok := shaders[0].Macros().Lookup("LIGHTS")
	require.True(t, ok)
	require.Equal(t, "4u", m.Value)

	require.Equal(t, "shaders/post/blur", targetName(dir, shaders[1].Root()))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.wgsl":          "",
		"sub/b.wgsl":      "",
		"sub/c.txt":       "",
		"sub/deep/d.wgsl": "",
	})
	b := &Builder{basedir: dir}
	pkg := &Package{Path: dir}

	files, err := b.collectFiles(pkg, []string{"**/*.wgsl", "a.wgsl"})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.wgsl"),
		filepath.Join(dir, "sub", "b.wgsl"),
		filepath.Join(dir, "sub", "deep", "d.wgsl"),
	}, files)
}
