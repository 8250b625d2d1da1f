package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sensorable/yololbl"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings holds the options of all commands. Flags take precedence over YOLOLBL_* environment
// variables, which take precedence over the --config file.
type settings struct {
	From       string   `mapstructure:"from"`
	Labels     string   `mapstructure:"labels"`
	Images     string   `mapstructure:"images"`
	Out        string   `mapstructure:"out"`
	Width      int      `mapstructure:"width"`
	Height     int      `mapstructure:"height"`
	MinBoxSize float64  `mapstructure:"min-box-size"`
	Classes    string   `mapstructure:"classes"`
	Map        []string `mapstructure:"map"`
	Progress   bool     `mapstructure:"progress"`
	Verbose    bool     `mapstructure:"verbose"`
	Fix        bool     `mapstructure:"fix"`
	LabelMap   string   `mapstructure:"label-map"`
	NumShards  int      `mapstructure:"num-shards"`
}

const (
	defaultFormat  = "kitti"
	defaultClasses = "kitti-vehicles"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("from", defaultFormat)
	v.SetDefault("classes", defaultClasses)
	v.SetDefault("num-shards", 1)
}

// loadSettings merges the flags of cmd with the environment and the config file.
func loadSettings(fs afero.Fs, cmd *cobra.Command) (*settings, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix("yololbl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, errors.Wrap(err, "error binding flags")
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(yololbl.ErrMissingInput, "cannot read config %q: %v", path, err)
		}
	}

	s := &settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}
	return s, nil
}
