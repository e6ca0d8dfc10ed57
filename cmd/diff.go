// wgslpp diff <file>
package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/qobs-build/wgslpp/internal/msg"
)

var diffFlags shaderFlags

// writeDiff renders a line diff from before to after, deleted lines in red with
// a leading '-' and inserted lines in green with a leading '+'
func writeDiff(w io.Writer, before, after string) error {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		for line := range strings.Lines(d.Text) {
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				sb.WriteString(color.RedString("-" + line))
			case diffmatchpatch.DiffInsert:
				sb.WriteString(color.GreenString("+" + line))
			default:
				sb.WriteString(" " + line)
			}
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

var diffCmd = &cobra.Command{
	Use:   "diff <file>",
	Short: "Show what preprocessing changes in a shader",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			msg.Fatal("%v", err)
		}
		b, err := diffFlags.builder(args[0])
		if err != nil {
			msg.Fatal("%v", err)
		}
		src, err := b.BuildSource()
		if err != nil {
			msg.Fatal("%v", err)
		}
		if err := writeDiff(color.Output, string(raw), src); err != nil {
			msg.Fatal("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffFlags.register(diffCmd)
}
