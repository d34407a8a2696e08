// Package cmd holds the fba command line tool.
package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

const envPrefix = "FBA"

// NewRootCommand returns the fba command with its sub commands. Settings come from flags, then FBA_*
// environment variables, then the optional config file.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "fba",
		Short: "Flux balance analysis of metabolic models",
		Long: `fba runs a flux balance analysis pipeline on a metabolic model: media and
knockouts are applied, the objective is optimized, and flux variability and
gene essentiality are analysed. Results are written as JSON, an HTML report
and an optional SQLite record.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (default is ./fba.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level")
	root.PersistentFlags().String("log-format", "text", "log format, text or json")
	root.PersistentFlags().String("log-file", "", "also write logs to this file, rotated by size")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", root.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("log.file", root.PersistentFlags().Lookup("log-file"))

	root.AddCommand(newRunCommand(v), newVersionCommand())

	return root
}

func initConfig(v *viper.Viper) error {
	setDefaults(v)

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("fba")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	// FBA_LOG_LEVEL for log.level
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// the default config file is optional, an explicit one is not
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && (v.GetString("config") != "" || !errors.As(err, &notFound)) {
		return errors.Wrap(err, "unable to read config")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("out", ".")
}
