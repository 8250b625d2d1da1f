package main

import (
	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/sensorable/yololbl"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// tfrecordCommand creates the command that exports YOLO labels and images as TFRecord files.
func tfrecordCommand(log logs.Log, fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tfrecord",
		Short: "Export YOLO labels and their images as TFRecord files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(fs, cmd)
			if err != nil {
				return err
			}
			return runTFRecord(log, fs, s)
		},
	}

	f := cmd.Flags()
	f.StringP("labels", "l", "", "The `path` to the YOLO label directory")
	f.StringP("images", "i", "", "The `path` to the image directory")
	f.StringP("out", "o", "", "The TFRecord output file `path`")
	f.String("label-map", "", "The label map output file `path`")
	f.StringP("classes", "c", defaultClasses, "The class map: a preset `name` or a YAML file path")
	f.Int("num-shards", 1, "The number of shard files to create")

	return cmd
}

func runTFRecord(log logs.Log, fs afero.Fs, s *settings) error {
	if s.Labels == "" || s.Images == "" {
		return errors.Wrap(yololbl.ErrMissingInput, "missing label or image input path argument")
	}
	if s.Out == "" || s.LabelMap == "" {
		return errors.Wrap(yololbl.ErrMissingInput, "missing record or label map output path")
	}

	classes, err := yololbl.ResolveClassMap(fs, s.Classes)
	if err != nil {
		return err
	}

	export := &yololbl.TFRecordExport{Fs: fs, Log: log, Classes: classes, NumShards: s.NumShards}
	if _, err := export.Write(s.Labels, s.Images, s.Out, s.LabelMap); err != nil {
		return errors.Wrap(err, "TFRecord export failed")
	}
	return nil
}
