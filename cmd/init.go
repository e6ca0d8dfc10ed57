// wgslpp init [name]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qobs-build/wgslpp/internal/builder"
	"github.com/qobs-build/wgslpp/internal/msg"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "wgslpp"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

func configTemplate(name string) string {
	return `[package]
name = "` + name + `"
description = "Shaders for ` + name + `"

[target]
shaders = ["shaders/*.wgsl"]
include_dirs = ["shaders/include"]

[target.defines]
# SHADOWS = ""

[target.constants]
WORKGROUP_SIZE = "64u"

[dependencies]
# noise = "gh:someone/wgsl-noise@main"

[profile.debug]
defines = { DEBUG = "" }
`
}

// initIn initializes a package in an existing specified directory
func initIn(dir, name string) {
	writefile(configTemplate(name), dir, builder.ConfigFilename)

	mkdir(dir, "shaders", "include")

	writefile(`// shared declarations, found through target.include_dirs
const TAU: f32 = 6.283185307;
`, dir, "shaders", "include", "common.wgsl")

	writefile(`//!include common.wgsl

@compute @workgroup_size(WORKGROUP_SIZE)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
//!ifdef DEBUG
    // debug-only code goes here
//!endif
}
`, dir, "shaders", "main.wgsl")

	// .gitignore
	writefile(`build/
`, dir, ".gitignore")

	programName := getProgramName()
	fmt.Printf("You can now do %s to build, or %s to check a shader.\n",
		color.HiCyanString(programName+" "+dir),
		color.HiCyanString(programName+" check "+filepath.ToSlash(filepath.Join(dir, "shaders", "main.wgsl"))+" -D WORKGROUP_SIZE=64u"))
}

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new package in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0])
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a new package in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]))
	},
}

func init() {
	// wgslpp init subcommand
	rootCmd.AddCommand(initCmd)

	// wgslpp new subcommand
	rootCmd.AddCommand(newCmd)
}
