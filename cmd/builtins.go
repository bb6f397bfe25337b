package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/josephlewis42/mysh/core/shell"
	"github.com/spf13/cobra"
)

var colorGate = color.New(color.FgYellow)

// builtinsCmd lists the names reserved by the shell
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands of the shell.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		enabled := colorEnabled("auto", out)

		for _, name := range shell.BuiltinNames() {
			if shell.IsGate(name) {
				fmt.Fprintln(out, sprint(colorGate, enabled, name), "(gate)")
				continue
			}
			fmt.Fprintln(out, sprint(colorName, enabled, name))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
