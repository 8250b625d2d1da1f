package main

import (
	"fmt"

	"github.com/sensorable/yololbl"
	"github.com/spf13/cobra"
)

// classesCommand creates the command that prints the built-in class maps.
func classesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Print the built-in class maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range yololbl.ClassMapPresetNames() {
				m, _ := yololbl.ClassMapPreset(name)
				fmt.Fprintf(out, "%s: %v\n", name, m.Names)
				fmt.Fprint(out, m.String())
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
