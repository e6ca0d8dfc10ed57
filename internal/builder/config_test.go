package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/require"

	"github.com/qobs-build/wgslpp/internal/wgsl"
)

func testEnv(basedir string) ConfigEnv {
	return ConfigEnv{
		TargetOS:   "linux",
		TargetArch: "amd64",
		Environ:    map[string]string{"QUALITY": "high"},
		basedir:    basedir,
	}
}

const sampleConfig = `
[package]
name = "demo"
description = "demo shaders"

[target]
shaders = ["shaders/*.wgsl"]
include_dirs = ["lib"]
out_dir = '{{ "out-" + target_os }}'

[target.defines]
SHADOWS = ""
QUALITY = '{{ environ["QUALITY"] }}'

[target.constants]
LIGHTS = "4u"
SCALE = 1.5
OFFSET = [1, 2]
TINT = [1.0, 0.5, 0.25]

[target.'target_os == "windows"']
shaders = ["windows/*.wgsl"]

[target.'target_os == "linux"']
shaders = ["linux/*.wgsl"]
defines = { VULKAN = "" }

[dependencies]
noise = "gh:someone/wgsl-noise@main"

[dependencies.'target_arch == "arm64"']
mobile = "gh:someone/mobile"

[profile.release]
defines = { FAST_MATH = "" }
constants = { SCALE = 2.0 }
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(sampleConfig), testEnv(t.TempDir()))
	require.NoError(t, err)

	require.Equal(t, "demo", cfg.Package.Name)
	require.Equal(t, []string{"shaders/*.wgsl", "linux/*.wgsl"}, cfg.Target.Shaders)
	require.Equal(t, []string{"lib"}, cfg.Target.IncludeDirs)
	require.Equal(t, "out-linux", cfg.Target.OutDir)
	require.Equal(t, map[string]string{"SHADOWS": "", "QUALITY": "high", "VULKAN": ""}, cfg.Target.Defines)
	require.Equal(t, map[string]string{"noise": "gh:someone/wgsl-noise@main"}, cfg.Dependencies)
	require.Equal(t, []string{"debug", "release"}, cfg.Profiles())
}

func TestConfigMacros(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(sampleConfig), testEnv(t.TempDir()))
	require.NoError(t, err)

	defines, constants, err := cfg.Macros("debug")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"SHADOWS": "", "QUALITY": "high", "VULKAN": "", "DEBUG": ""}, defines)
	require.Equal(t, map[string]wgsl.Value{
		"LIGHTS": wgsl.U32(4),
		"SCALE":  wgsl.F32(1.5),
		"OFFSET": wgsl.Vec2[int32]{1, 2},
		"TINT":   wgsl.Vec3[float32]{1, 0.5, 0.25},
	}, constants)

	defines, constants, err = cfg.Macros("release")
	require.NoError(t, err)
	require.NotContains(t, defines, "DEBUG")
	require.Contains(t, defines, "FAST_MATH")
	require.Equal(t, wgsl.F32(2), constants["SCALE"])

	_, _, err = cfg.Macros("profiling")
	require.ErrorContains(t, err, `unknown profile "profiling", known profiles: debug, release`)
}

func TestConfigDefaultProfilesAreNotShared(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader("[profile.debug]\ndefines = { TRACE = \"\" }\n"), testEnv(t.TempDir()))
	require.NoError(t, err)
	require.Contains(t, cfg.Profile["debug"].Defines, "TRACE")

	fresh, err := ParseConfig(strings.NewReader(""), testEnv(t.TempDir()))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"DEBUG": ""}, fresh.Profile["debug"].Defines)
}

func TestConfigBadConstant(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader("[target.constants]\nNAME = \"text\"\n"), testEnv(t.TempDir()))
	require.NoError(t, err)
	_, _, err = cfg.Macros("debug")
	require.ErrorIs(t, err, wgsl.ErrUnsupportedType)
	require.ErrorContains(t, err, "constant NAME")
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig(strings.NewReader("[package\n"), testEnv(t.TempDir()))
	require.Error(t, err)

	_, err = ParseConfig(strings.NewReader("target = 1\n"), testEnv(t.TempDir()))
	require.ErrorContains(t, err, "invalid [target] section format")

	_, err = ParseConfig(strings.NewReader("[package]\nname = '{{ nope( }}'\n"), testEnv(t.TempDir()))
	require.ErrorContains(t, err, "error processing expressions in config")
}

func TestRunBuildScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.wgsl"), []byte("const A = 1;\n"), 0o644))
	env := testEnv(dir)

	cfg := Config{Package: PackageSection{Name: "demo", Build: `Exists("lib.wgsl") && target_os == "linux"`}}
	require.NoError(t, cfg.RunBuildScript(env))

	cfg.Package.Build = `Exists("missing.wgsl")`
	require.ErrorContains(t, cfg.RunBuildScript(env), "returned false")

	cfg.Package.Build = ""
	require.NoError(t, cfg.RunBuildScript(env))
}

func TestConfigEnvPatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.wgsl")
	require.NoError(t, os.WriteFile(path, []byte("const A = 1;\n"), 0o644))
	env := testEnv(dir)

	dmp := diffmatchpatch.New()
	patch := dmp.PatchToText(dmp.PatchMake("const A = 1;\n", "const A = 2;\n"))
	applied, err := env.Patch("lib.wgsl", patch)
	require.NoError(t, err)
	require.True(t, applied)

	text, err := env.ReadFile("lib.wgsl")
	require.NoError(t, err)
	require.Equal(t, "const A = 2;\n", text)

	_, err = env.ReadFile("../outside.wgsl")
	require.ErrorIs(t, err, errOutsidePackage)
	_, err = env.Patch("../outside.wgsl", patch)
	require.ErrorIs(t, err, errOutsidePackage)
}
