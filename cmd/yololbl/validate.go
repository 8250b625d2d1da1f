package main

import (
	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/sensorable/yololbl"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// validateCommand creates the command that checks a directory of YOLO labels.
func validateCommand(log logs.Log, fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check a directory of YOLO labels",
		Long: "Check that every line has a class from the class map and four values in [0, 1]." +
			" With --fix, invalid lines are removed from the files.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(fs, cmd)
			if err != nil {
				return err
			}
			return runValidate(log, fs, args[0], s)
		},
	}

	f := cmd.Flags()
	f.StringP("classes", "c", defaultClasses, "The class map: a preset `name` or a YAML file path")
	f.Bool("fix", false, "Rewrite files without their invalid lines")

	return cmd
}

func runValidate(log logs.Log, fs afero.Fs, dir string, s *settings) error {
	classes, err := yololbl.ResolveClassMap(fs, s.Classes)
	if err != nil {
		return err
	}

	report, err := yololbl.ValidateDir(fs, log, dir, classes, s.Fix)
	if err != nil {
		return err
	}
	if report.Invalid > 0 && !s.Fix {
		return errors.Errorf("%d invalid label lines in %d files", report.Invalid,
			len(report.InvalidFiles))
	}
	return nil
}
