package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qobs-build/wgslpp/internal/preprocess"
	"github.com/qobs-build/wgslpp/internal/shader"
)

type EnumValue struct {
	value      string
	allowed    map[string]string // value -> help text
	defaultVal string
}

func NewEnumValue(defaultVal string, allowed map[string]string) EnumValue {
	if _, ok := allowed[defaultVal]; !ok {
		panic(fmt.Sprintf("default value %q not in allowed set", defaultVal))
	}
	return EnumValue{
		value:      defaultVal,
		allowed:    allowed,
		defaultVal: defaultVal,
	}
}

func (e *EnumValue) String() string     { return e.value }
func (e *EnumValue) HelpString() string { return "[" + strings.Join(e.AllowedKeys(), ", ") + "]" }
func (e *EnumValue) Type() string       { return "enum" }
func (e *EnumValue) Value() string      { return e.value }

func (e *EnumValue) Set(v string) error {
	if _, ok := e.allowed[v]; ok {
		e.value = v
		return nil
	}
	return fmt.Errorf("must be one of: %s", strings.Join(e.AllowedKeys(), ", "))
}

func (e *EnumValue) AllowedKeys() []string {
	return slices.Sorted(maps.Keys(e.allowed))
}

func (e *EnumValue) CompletionFunc() func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		items := make([]string, 0, len(e.allowed))
		for _, k := range e.AllowedKeys() {
			if help := e.allowed[k]; help != "" {
				items = append(items, fmt.Sprintf("%s\t%s", k, help))
			} else {
				items = append(items, k)
			}
		}
		return items, cobra.ShellCompDirectiveNoFileComp
	}
}

// shaderFlags are shared by the commands that work on a single root module
type shaderFlags struct {
	defines     []string
	includeDirs []string
	allowCycles bool
}

func (f *shaderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.defines, "define", "D", nil, "Define a macro, NAME or NAME=VALUE")
	cmd.Flags().StringArrayVarP(&f.includeDirs, "include", "I", nil, "Add a directory to search for includes")
	cmd.Flags().BoolVar(&f.allowCycles, "allow-cycles", false, "Allow recursive includes up to the nesting limit")
}

// builder configures a shader builder for root from the flags
func (f *shaderFlags) builder(root string) (*shader.Builder, error) {
	b := shader.New(root).
		IncludeDirs(f.includeDirs...).
		AllowCycles(f.allowCycles)
	for _, def := range f.defines {
		name, value, hasValue := preprocess.ParseDefine(def)
		if hasValue {
			b.PutRaw(name, value)
		} else {
			b.Define(name)
		}
	}
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("invalid -D flag: %w", err)
	}
	return b, nil
}
