// Package cmd provides the minplay command-line interface.
//
// Configuration is read, in increasing order of precedence, from defaults,
// a .minplay.yml file (or the file named by --config or MINPLAY_CONFIG_FILE),
// MINPLAY_<SECTION>_<KEY> environment variables, and command flags.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/minplay/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "minplay",
	Short: "An interactive playground for a JavaScript minifier",
	Long: `minplay runs a JavaScript minifier continuously against source text and a
JSON options document, and reports the minified output, size savings and
diagnostics as you type.

Quick Start:
  minplay serve                         Open the browser playground
  minplay watch app.js -o app.min.js    Re-minify a file whenever it changes
  minplay minify app.js                 Minify once and print the result
  minplay options                       Print the default options document`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .minplay.yml, can also use MINPLAY_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("options", "", "JSON options file to start with")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("options.file", rootCmd.PersistentFlags().Lookup("options"))
}

// initConfig picks the config file: --config, then MINPLAY_CONFIG_FILE, then
// .minplay.yml in the working directory. A missing file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("MINPLAY_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".minplay")
	}

	viper.SetEnvPrefix("MINPLAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
