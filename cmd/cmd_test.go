package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/qobs-build/wgslpp/internal/builder"
	"github.com/qobs-build/wgslpp/internal/preprocess"
	"github.com/qobs-build/wgslpp/internal/shader"
)

func TestEnumValue(t *testing.T) {
	e := NewEnumValue("wgsl", map[string]string{"wgsl": "text", "spirv": "binary"})
	require.Equal(t, "wgsl", e.Value())
	require.Equal(t, "[spirv, wgsl]", e.HelpString())

	require.NoError(t, e.Set("spirv"))
	require.Equal(t, "spirv", e.String())
	require.EqualError(t, e.Set("ninja"), "must be one of: spirv, wgsl")
	require.Equal(t, "spirv", e.Value())

	items, _ := e.CompletionFunc()(nil, nil, "")
	require.Equal(t, []string{"spirv\tbinary", "wgsl\ttext"}, items)

	require.Panics(t, func() { NewEnumValue("vs2022", map[string]string{"wgsl": ""}) })
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunPreprocess(t *testing.T) {
	dir := t.TempDir()
	lib := t.TempDir()
	writeFile(t, lib, "lib.wgsl", "fn lib() {}\n")
	root := writeFile(t, dir, "main.wgsl",
		"//!include lib.wgsl\n//!ifdef FAST\nconst STEPS = COUNT;\n//!else\nconst STEPS = 64u;\n//!endif\n")

	flags := &shaderFlags{
		defines:     []string{"FAST", "COUNT=8u"},
		includeDirs: []string{lib},
	}
	var out bytes.Buffer
	require.NoError(t, runPreprocess(&out, root, flags, false))
	require.Empty(t, cmp.Diff("fn lib() {}\nconst STEPS = 8u;\n", out.String()))

	out.Reset()
	require.NoError(t, runPreprocess(&out, root, flags, true))
	require.Equal(t, filepath.Clean(root)+"\n"+filepath.Join(lib, "lib.wgsl")+"\n", out.String())

	out.Reset()
	err := runPreprocess(&out, root, &shaderFlags{}, false)
	require.ErrorIs(t, err, preprocess.ErrFileNotFound)
	require.Empty(t, out.String())

	err = runPreprocess(&out, root, &shaderFlags{defines: []string{"=1"}}, false)
	require.ErrorContains(t, err, "invalid -D flag")
}

func TestPreprocessToFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.wgsl", "const N = COUNT;\n")
	bad := writeFile(t, dir, "bad.wgsl", "//!include missing.wgsl\n")
	out := filepath.Join(dir, "out.wgsl")

	err := preprocessTo(out, bad, &shaderFlags{}, false)
	require.ErrorIs(t, err, preprocess.ErrFileNotFound)
	require.NoFileExists(t, out)

	require.NoError(t, preprocessTo(out, good, &shaderFlags{defines: []string{"COUNT=3u"}}, false))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "const N = 3u;\n", string(data))

	// a failed run leaves an earlier result untouched
	require.Error(t, preprocessTo(out, bad, &shaderFlags{}, false))
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "const N = 3u;\n", string(data))
}

func TestRunCheck(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	root := writeFile(t, dir, "vertex.wgsl",
		"@vertex\nfn main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {\n    return POS;\n}\n")

	var out bytes.Buffer
	ok, err := runCheck(&out, root, &shaderFlags{defines: []string{"POS=vec4<f32>(0.0, 0.0, 0.0, 1.0)"}}, shader.CompileOptions{})
	require.NoError(t, err)
	require.True(t, ok, out.String())
	require.Contains(t, out.String(), "OK "+root)

	out.Reset()
	ok, err = runCheck(&out, root, &shaderFlags{}, shader.CompileOptions{})
	require.NoError(t, err)
	require.False(t, ok)
	require.Contains(t, out.String(), "FAIL "+root)

	_, err = runCheck(&out, filepath.Join(dir, "missing.wgsl"), &shaderFlags{}, shader.CompileOptions{})
	require.ErrorIs(t, err, preprocess.ErrFileNotFound)
}

func TestWriteDiff(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	require.NoError(t, writeDiff(&out,
		"//!define N 4u\nconst A = N;\nfn f() {}\n",
		"const A = 4u;\nfn f() {}\n"))
	require.Equal(t, "-//!define N 4u\n-const A = N;\n+const A = 4u;\n fn f() {}\n", out.String())
}

func TestInitIn(t *testing.T) {
	dir := t.TempDir()
	initIn(dir, "demo")

	require.FileExists(t, filepath.Join(dir, builder.ConfigFilename))
	require.FileExists(t, filepath.Join(dir, "shaders", "main.wgsl"))
	require.FileExists(t, filepath.Join(dir, "shaders", "include", "common.wgsl"))

	b, err := builder.NewBuilderInDirectory(dir)
	require.NoError(t, err)
	require.Equal(t, "demo", b.Config().Package.Name)

	shaders, err := b.Shaders("debug", nil)
	require.NoError(t, err)
	require.Len(t, shaders, 1)
	src, err := shaders[0].BuildSource()
	require.NoError(t, err)
	require.Contains(t, src, "@workgroup_size(64u)")
	require.Contains(t, src, "const TAU")
	require.Contains(t, src, "// debug-only code goes here")
}
