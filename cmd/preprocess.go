// wgslpp preprocess <file>
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qobs-build/wgslpp/internal/msg"
)

var (
	preprocessFlags shaderFlags
	flagOutput      string
	flagListModules bool
)

// runPreprocess writes the processed text of root, or the modules it read, to w
func runPreprocess(w io.Writer, root string, flags *shaderFlags, listModules bool) error {
	b, err := flags.builder(root)
	if err != nil {
		return err
	}
	out, err := b.BuildOutput()
	if err != nil {
		return err
	}
	if listModules {
		_, err = fmt.Fprintln(w, strings.Join(out.Modules, "\n"))
		return err
	}
	_, err = io.WriteString(w, out.Source)
	return err
}

// preprocessTo runs runPreprocess and writes the result to output, or to stdout
// when output is empty or "-". Nothing is written if preprocessing fails.
func preprocessTo(output, root string, flags *shaderFlags, listModules bool) error {
	var buf bytes.Buffer
	if err := runPreprocess(&buf, root, flags, listModules); err != nil {
		return err
	}
	if output == "" || output == "-" {
		_, err := buf.WriteTo(os.Stdout)
		return err
	}
	return os.WriteFile(output, buf.Bytes(), 0o644)
}

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <file>",
	Short: "Preprocess a single shader and print the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := preprocessTo(flagOutput, args[0], &preprocessFlags, flagListModules); err != nil {
			msg.Fatal("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
	preprocessFlags.register(preprocessCmd)
	preprocessCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write to a file instead of stdout")
	preprocessCmd.Flags().BoolVarP(&flagListModules, "modules", "M", false, "List the modules the shader reads instead of its text")
}
