package msg

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Output receives every message, colored when it is a terminal
var Output io.Writer = color.Output

// Verbose enables Debug output
var Verbose bool

func printLabel(label, format string, a ...any) {
	fmt.Fprintf(Output, "%s: %s\n", label, fmt.Sprintf(format, a...))
}

func Error(format string, a ...any) {
	printLabel(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	printLabel(color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	printLabel(color.RedString("fatal"), format, a...)
	os.Exit(1)
}

func Info(format string, a ...any) {
	printLabel(color.HiGreenString("info"), format, a...)
}

func Debug(format string, a ...any) {
	if !Verbose {
		return
	}
	printLabel(color.HiBlackString("debug"), format, a...)
}

// IndentWriter prefixes every line written through it with Indent
type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	bw := bufio.NewWriter(w.W)
	for _, c := range p {
		if !w.didIndent {
			bw.WriteString(w.Indent)
			w.didIndent = true
		}
		bw.WriteByte(c)
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, err
	}
	return len(p), nil
}
