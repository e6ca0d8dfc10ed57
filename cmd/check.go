// wgslpp check <file>
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qobs-build/wgslpp/internal/msg"
	"github.com/qobs-build/wgslpp/internal/shader"
)

var (
	checkFlags     shaderFlags
	flagNoValidate bool
)

// runCheck preprocesses and compiles root, printing compiler diagnostics to w.
// It returns false if the shader does not compile.
func runCheck(w io.Writer, root string, flags *shaderFlags, opts shader.CompileOptions) (bool, error) {
	b, err := flags.builder(root)
	if err != nil {
		return false, err
	}
	src, err := b.BuildSource()
	if err != nil {
		return false, err
	}

	spv, err := shader.CompileSource(src, opts)
	if err != nil {
		fmt.Fprintf(w, "%s %s\n", color.HiRedString("FAIL"), root)
		iw := &msg.IndentWriter{Indent: "    ", W: w}
		fmt.Fprintln(iw, shader.Diagnostic(err))
		return false, nil
	}
	fmt.Fprintf(w, "%s %s (%d bytes of SPIR-V)\n", color.HiGreenString("OK"), root, len(spv))
	return true, nil
}

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Preprocess shaders and check that they compile",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := shader.DefaultCompileOptions()
		opts.Validate = !flagNoValidate

		failed := 0
		for _, root := range args {
			ok, err := runCheck(os.Stdout, root, &checkFlags, opts)
			if err != nil {
				msg.Fatal("%v", err)
			}
			if !ok {
				failed++
			}
		}
		if failed > 0 {
			msg.Fatal("%d of %d shader(s) failed to compile", failed, len(args))
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkFlags.register(checkCmd)
	checkCmd.Flags().BoolVar(&flagNoValidate, "no-validate", false, "Skip IR validation")
}
