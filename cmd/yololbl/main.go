// Converts KITTI, YOLO, Sloth and VGG Image Annotator labels into the normalized YOLO labels used
// to train the vehicle detector, and validates and exports the converted datasets.
package main

import (
	"fmt"
	"os"

	"github.com/cyclopcam/logs"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func main() {
	log, err := logs.NewLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create logger:", err)
		os.Exit(1)
	}

	if err := rootCommand(log, afero.NewOsFs()).Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// rootCommand creates the yololbl command with all sub-commands.
func rootCommand(log logs.Log, fs afero.Fs) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "yololbl",
		Short:         "Prepare vehicle detection labels for YOLO training",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "The `path` to a YAML settings file")

	rootCmd.AddCommand(
		convertCommand(log, fs),
		validateCommand(log, fs),
		tfrecordCommand(log, fs),
		classesCommand(),
	)

	return rootCmd
}
