// wgslpp [path], wgslpp build [path]
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qobs-build/wgslpp/internal/builder"
	"github.com/qobs-build/wgslpp/internal/builder/gen"
	"github.com/qobs-build/wgslpp/internal/msg"
)

var (
	flagProfile   string
	flagGenerator EnumValue = NewEnumValue(gen.GeneratorWGSL, map[string]string{
		gen.GeneratorWGSL:  "Write preprocessed WGSL (default)",
		gen.GeneratorSPIRV: "Compile every shader to SPIR-V",
	})
)

func doBuild(cmd *cobra.Command, args []string) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	b, err := builder.NewBuilderInDirectory(target)
	if err != nil {
		msg.Fatal("%v", err)
	}
	if err := b.Build(flagProfile, flagGenerator.Value()); err != nil {
		msg.Fatal("%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wgslpp [target path]",
	Short: "WGSL preprocessor",
	Long: `WGSL preprocessor. Resolves //!include, //!define and //!ifdef directives
and substitutes macros, for single files or for a whole wgslpp.toml package.`,
	Args: cobra.MaximumNArgs(1),
	Run:  doBuild,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		msg.Verbose = flagVerbose
	},
}

var buildCmd = &cobra.Command{
	Use:   "build [target path]",
	Short: "Build the package",
	Long:  `Build the package. If no target path is given, uses "."`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doBuild,
}

var flagVerbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print every generated file")
	addBuildFlags(rootCmd)

	// wgslpp build subcommand
	rootCmd.AddCommand(buildCmd)
	addBuildFlags(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagProfile, "profile", "p", "debug", "Build with the given profile")
	cmd.Flags().VarP(&flagGenerator, "gen", "g", "Generator to build with, one of "+flagGenerator.HelpString())
	cmd.RegisterFlagCompletionFunc("gen", flagGenerator.CompletionFunc())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
